package handler

import (
	"net/http"

	"worklink/internal/domain"
	"worklink/internal/middleware"
	"worklink/internal/models"
	"worklink/internal/repository"

	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projectRepo *repository.ProjectRepository
}

func NewProjectHandler(projectRepo *repository.ProjectRepository) *ProjectHandler {
	return &ProjectHandler{projectRepo: projectRepo}
}

// Create registers a new project with its quote, starting at QUOTED.
func (h *ProjectHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Title       string `json:"title" binding:"required,max=255"`
		Description string `json:"description"`
		QuoteCents  int64  `json:"quote_cents" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := &models.Project{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		QuoteCents:  req.QuoteCents,
		Status:      domain.ProjectStatusQuoted,
	}
	if err := h.projectRepo.Create(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "project create failed"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProjectHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	projects, err := h.projectRepo.ListByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "project list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (h *ProjectHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	p, err := h.projectRepo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	if p.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// AcceptQuote moves a project from QUOTED to PAYMENT_PENDING so it can be paid.
func (h *ProjectHandler) AcceptQuote(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	p, err := h.projectRepo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	if p.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if err := h.projectRepo.UpdateStatus(id, domain.ProjectStatusQuoted, domain.ProjectStatusPaymentPending, "quote accepted"); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "project is not awaiting quote acceptance"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"project_id": id, "status": domain.ProjectStatusPaymentPending})
}
