package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"student-inout-api/internal/response"
)

// queryInt reads an integer query parameter, falling back to def when absent
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, response.NewValidationError("Query parameter "+name+" must be an integer", raw)
	}
	return v, nil
}
