package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Default page sizes for list endpoints.
const (
	defaultContactLimit  = 1000
	defaultMessageLimit  = 100
	defaultActivityLimit = 50
)

// queryInt reads a positive integer query parameter. Anything missing, zero,
// negative or malformed yields fallback.
func queryInt(c *gin.Context, name string, fallback int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// queryOffset is like queryInt but accepts zero.
func queryOffset(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("offset"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func uuidParam(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, invalid("invalid id: " + c.Param("id"))
	}
	return id, nil
}

func uintParam(c *gin.Context) (uint, error) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || n == 0 {
		return 0, invalid("invalid id: " + c.Param("id"))
	}
	return uint(n), nil
}
