package webserver

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/inquiry"
)

type Inquiry struct {
	svc *inquiry.Service
}

func NewInquiry(svc *inquiry.Service) Inquiry {
	return Inquiry{svc: svc}
}

func (h Inquiry) Claim(c *gin.Context) {
	task, err := h.svc.Claim(c.Request.Context(), c.Param("id"), c.GetString("uid"))
	if err != nil {
		writeFault(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": task.ID, "status": task.Status})
}

func (h Inquiry) Submit(c *gin.Context) {
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

	action, err := h.svc.Submit(c.Request.Context(), c.Param("id"), inquiry.SubmitRequest{
		Message:    req.Message,
		Screenshot: raw,
	}, c.GetString("uid"), PrimaryRole(c))
	if err != nil {
		writeFault(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": action.ID, "status": action.Status})
}
