package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/types"
)

// writeFault maps a service error to its HTTP shape. Rate-limit responses
// carry the remaining wait so clients can render a countdown.
func writeFault(c *gin.Context, err error) {
	f := types.AsFault(err)
	if f == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	body := gin.H{"err": f.Msg, "kind": string(f.Kind)}
	switch f.Kind {
	case types.KindNotFound:
		c.JSON(http.StatusNotFound, body)
	case types.KindConflict:
		c.JSON(http.StatusConflict, body)
	case types.KindForbidden:
		c.JSON(http.StatusForbidden, body)
	case types.KindInvalidState:
		if f.MissingStep != "" {
			body["missing_step"] = f.MissingStep
		}
		c.JSON(http.StatusUnprocessableEntity, body)
	case types.KindValidation:
		c.JSON(http.StatusBadRequest, body)
	case types.KindRateLimited:
		if f.RetryMinutes > 0 {
			body["retry_after_minutes"] = f.RetryMinutes
		}
		if f.RetryDays > 0 {
			body["retry_after_days"] = f.RetryDays
		}
		c.JSON(http.StatusTooManyRequests, body)
	default:
		c.JSON(http.StatusInternalServerError, body)
	}
}
