package webserver

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/linkedin"
)

type LinkedIn struct {
	svc *linkedin.Service
}

func NewLinkedIn(svc *linkedin.Service) LinkedIn {
	return LinkedIn{svc: svc}
}

func (h LinkedIn) Claim(c *gin.Context) {
	task, err := h.svc.Claim(c.Request.Context(), c.Param("id"), c.GetString("uid"))
	if err != nil {
		writeFault(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": task.ID, "status": task.Status})
}

func (h LinkedIn) SubmitStep(c *gin.Context) {
	var req struct {
		Message    string `json:"message" binding:"required,max=10000"`
		Screenshot string `json:"screenshot" binding:"required"` // base64 raw bytes
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	raw, err := base64.StdEncoding.DecodeString(req.Screenshot)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "screenshot must be base64"})
		return
	}

	action, err := h.svc.SubmitAction(c.Request.Context(), c.Param("id"), c.Param("step"),
		linkedin.SubmitRequest{Message: req.Message, Screenshot: raw},
		c.GetString("uid"), PrimaryRole(c))
	if err != nil {
		writeFault(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": action.ID, "step": action.StepType, "status": action.Status})
}
