package util

import (
	"github.com/gin-gonic/gin"
)

// operatorIDKey mirrors middleware.OperatorIDKey
const operatorIDKey = "operator_id"

// OperatorID returns the authenticated operator for audit logging, or
// "anonymous" on public routes
func OperatorID(c *gin.Context) string {
	if id := c.GetString(operatorIDKey); id != "" {
		return id
	}
	return "anonymous"
}
