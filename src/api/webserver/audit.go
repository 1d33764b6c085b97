package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/audit"
)

type Audit struct {
	svc *audit.Processor
}

func NewAudit(svc *audit.Processor) Audit {
	return Audit{svc: svc}
}

func (h Audit) Decide(c *gin.Context) {
	var req struct {
		TaskID   string `json:"taskId" binding:"required,uuid"`
		Track    string `json:"track" binding:"required,oneof=RESEARCH INQUIRY LINKEDIN"`
		ActionID string `json:"actionId" binding:"omitempty,uuid"`
		Decision string `json:"decision" binding:"required,oneof=APPROVED REJECTED FLAGGED"`
		Reason   string `json:"reason" binding:"max=512"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	row, err := h.svc.Decide(c.Request.Context(), audit.DecisionRequest{
		TaskID:   req.TaskID,
		Track:    req.Track,
		ActionID: req.ActionID,
		Decision: req.Decision,
		Reason:   req.Reason,
	}, c.GetString("uid"))
	if err != nil {
		writeFault(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": row.ID, "decision": row.Decision})
}
