package domain

const (
	RoleClient   = "CLIENT"
	RoleProvider = "PROVIDER"
)

// Project lifecycle. Only the transition into PAYMENT_CONFIRMED is driven by the
// payment engine; later transitions belong to project delivery.
const (
	ProjectStatusQuoted           = "QUOTED"
	ProjectStatusPaymentPending   = "PAYMENT_PENDING"
	ProjectStatusPaymentConfirmed = "PAYMENT_CONFIRMED"
	ProjectStatusInProgress       = "IN_PROGRESS"
	ProjectStatusCompleted        = "COMPLETED"
	ProjectStatusCancelled        = "CANCELLED"
)

const (
	DirectionCredit = "CREDIT"
	DirectionDebit  = "DEBIT"
)

// Ledger entry types.
const (
	TxTypeTopup          = "TOPUP"
	TxTypeProjectPayment = "PROJECT_PAYMENT"
	TxTypePartial        = "PARTIAL"
)

// Ledger entry funding sources. WALLET entries move the balance and are the
// ones reconciliation sums; GATEWAY entries are audit records of external
// charges.
const (
	FundingWallet  = "WALLET"
	FundingGateway = "GATEWAY"
)

// Gateway payment record statuses.
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
)

// Gateway payment intents (stored in payment metadata).
const (
	PaymentIntentTopup   = "TOPUP"
	PaymentIntentProject = "PROJECT"
)

// Activity log categories.
const (
	ActivityCategoryWallet  = "WALLET"
	ActivityCategoryPayment = "PAYMENT"
)
