package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/research"
)

type Research struct {
	svc *research.Service
}

func NewResearch(svc *research.Service) Research {
	return Research{svc: svc}
}

func (h Research) Create(c *gin.Context) {
	var req struct {
		TargetKind string `json:"targetKind" binding:"required,oneof=COMPANY LINKEDIN_PROFILE"`
		Target     string `json:"target" binding:"required,max=512"`
		CategoryID string `json:"categoryId" binding:"required,uuid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	task, err := h.svc.Create(c.Request.Context(), research.CreateRequest{
		TargetKind: req.TargetKind,
		RawTarget:  req.Target,
		CategoryID: req.CategoryID,
	}, c.GetString("uid"))
	if err != nil {
		writeFault(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": task.ID, "status": task.Status})
}

func (h Research) Claim(c *gin.Context) {
	task, err := h.svc.Claim(c.Request.Context(), c.Param("id"), c.GetString("uid"))
	if err != nil {
		writeFault(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": task.ID, "status": task.Status})
}

func (h Research) Submit(c *gin.Context) {
	var req struct {
		Language     string `json:"language" binding:"required,max=16"`
		ContactName  string `json:"contactName" binding:"max=256"`
		ContactEmail string `json:"contactEmail" binding:"max=256"`
		ContactURL   string `json:"contactUrl" binding:"max=512"`
		Country      string `json:"country" binding:"max=64"`
		Notes        string `json:"notes" binding:"max=10000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	sub, err := h.svc.Submit(c.Request.Context(), c.Param("id"), research.SubmitRequest{
		Language:     req.Language,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactURL:   req.ContactURL,
		Country:      req.Country,
		Notes:        req.Notes,
	}, c.GetString("uid"))
	if err != nil {
		writeFault(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": sub.ID})
}
