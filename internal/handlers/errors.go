package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"todoease/internal/repositories"
	"todoease/internal/services"
)

// respondError はエラーの種類に応じたステータスとJSONを返します。
func respondError(c *gin.Context, logger *log.Logger, action string, err error) {
	switch {
	case errors.Is(err, repositories.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	case errors.Is(err, repositories.ErrSubTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Subtask not found"})
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
	default:
		if logger != nil {
			logger.Error("request failed", "action", action, "path", c.Request.URL.Path, "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action, "details": err.Error()})
	}
}

// parseID はパスパラメータ name を正の整数IDとして読み取ります。失敗時は 400 を返して false を返します。
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return 0, false
	}
	return id, true
}

func parseIntQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": name + " is required"})
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": name + " must be an integer"})
		return 0, false
	}
	return v, true
}
