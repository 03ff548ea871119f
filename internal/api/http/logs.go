package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UILogEntry is one log line from the shell UI
type UILogEntry struct {
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context"`
	Timestamp string         `json:"timestamp"`
}

// UILogBatch is a batch of UI log lines
type UILogBatch struct {
	Entries []UILogEntry `json:"entries" binding:"required"`
}

const maxUILogEntries = 500

// StreamLogs writes UI log lines to the backend log
func (h *Handlers) StreamLogs(c *gin.Context) {
	var batch UILogBatch
	if !bind(c, &batch) {
		return
	}
	if len(batch.Entries) == 0 || len(batch.Entries) > maxUILogEntries {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected 1 to 500 entries"})
		return
	}

	logger := h.logger.Named("ui")
	for _, entry := range batch.Entries {
		fields := make([]zap.Field, 0, len(entry.Context)+1)
		fields = append(fields, zap.String("ui_timestamp", entry.Timestamp))
		for key, value := range entry.Context {
			fields = append(fields, zap.Any(key, value))
		}

		switch entry.Level {
		case "error":
			logger.Error(entry.Message, fields...)
		case "warn":
			logger.Warn(entry.Message, fields...)
		case "debug", "verbose":
			logger.Debug(entry.Message, fields...)
		default:
			logger.Info(entry.Message, fields...)
		}
	}

	c.JSON(http.StatusOK, gin.H{"entries_processed": len(batch.Entries)})
}
