package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate applies SELECT ... FOR UPDATE on databases that support it. SQLite
// (used by the test harness) serializes writers itself and does not parse the
// clause; there the engine's per-wallet lease provides the serialization.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
