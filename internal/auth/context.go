package auth

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetUserIDInt64 returns the authenticated user's ID as int64, or 0 when
// missing or not numeric.
func GetUserIDInt64(c *gin.Context) int64 {
	id, err := strconv.ParseInt(GetUserID(c), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
