package webserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/identity"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/types"
	"gorm.io/gorm"
)

type Admin struct {
	db *gorm.DB
}

func NewAdmin(db *gorm.DB) Admin {
	return Admin{db: db}
}

func (h Admin) CreateCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required,max=128"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	cat := types.Category{ID: uuid.NewString(), Name: req.Name, Active: true}
	if err := h.db.FirstOrCreate(&cat, types.Category{Name: req.Name}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": cat.ID})
}

// CreateInquiryTask is the per-item primitive the bulk importer calls.
func (h Admin) CreateInquiryTask(c *gin.Context) {
	var req struct {
		TargetKind string `json:"targetKind" binding:"required,oneof=COMPANY LINKEDIN_PROFILE"`
		Target     string `json:"target" binding:"required,max=512"`
		CategoryID string `json:"categoryId" binding:"required,uuid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	var task types.InquiryTask
	err := h.db.Transaction(func(tx *gorm.DB) error {
		targetID, _, err := identity.Resolve(tx, req.TargetKind, req.Target)
		if err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&types.InquiryTask{}).
			Where("target_id = ? AND category_id = ? AND status NOT IN ?",
				targetID, req.CategoryID, []string{types.InquiryRejected}).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return types.Conflict("inquiry task already exists for this target")
		}
		task = types.InquiryTask{
			ID:         uuid.NewString(),
			TargetID:   targetID,
			TargetKind: req.TargetKind,
			CategoryID: req.CategoryID,
			Status:     types.InquiryPending,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		return tx.Create(&task).Error
	})
	if err != nil {
		writeFault(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": task.ID})
}

func (h Admin) UpsertCategoryRule(c *gin.Context) {
	var req struct {
		CategoryID       string `json:"categoryId" binding:"required,uuid"`
		ActionType       string `json:"actionType" binding:"required,max=64"`
		Role             string `json:"role" binding:"required,max=64"`
		DailyLimit       *int   `json:"dailyLimit"`
		CooldownDays     *int   `json:"cooldownDays"`
		ActionsRequired  int    `json:"actionsRequired"`
		EvidenceRequired *bool  `json:"evidenceRequired"`
		Priority         int    `json:"priority"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	required := req.ActionsRequired
	if required <= 0 {
		required = 1
	}
	evidence := true
	if req.EvidenceRequired != nil {
		evidence = *req.EvidenceRequired
	}
	rule := types.CategoryRule{
		ID:               uuid.NewString(),
		CategoryID:       req.CategoryID,
		ActionType:       req.ActionType,
		Role:             req.Role,
		DailyLimit:       req.DailyLimit,
		CooldownDays:     req.CooldownDays,
		ActionsRequired:  required,
		EvidenceRequired: evidence,
		Active:           true,
		Priority:         req.Priority,
		CreatedAt:        time.Now(),
	}
	if err := h.db.Create(&rule).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": rule.ID})
}

func (h Admin) UpsertCooldownRule(c *gin.Context) {
	var req struct {
		CategoryID      string `json:"categoryId" binding:"required,uuid"`
		ActionType      string `json:"actionType" binding:"required,max=64"`
		ActionsRequired int    `json:"actionsRequired" binding:"required,min=1"`
		CooldownMinutes int    `json:"cooldownMinutes" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	rule := types.CooldownRule{
		ID:              uuid.NewString(),
		CategoryID:      req.CategoryID,
		ActionType:      req.ActionType,
		ActionsRequired: req.ActionsRequired,
		CooldownMinutes: req.CooldownMinutes,
		Active:          true,
		CreatedAt:       time.Now(),
	}
	if err := h.db.Create(&rule).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": rule.ID})
}
