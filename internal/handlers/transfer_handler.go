package handlers

import (
	"bytes"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"todoease/internal/importer"
	"todoease/internal/services"
)

const maxImportBytes = 4 << 20

// TransferHandler は YAML でのインポート・エクスポートを扱います。
type TransferHandler struct {
	taskService *services.TaskService
	logger      *log.Logger
}

// NewTransferHandler は新しいTransferHandlerを作成します。
func NewTransferHandler(taskService *services.TaskService, logger *log.Logger) *TransferHandler {
	return &TransferHandler{taskService: taskService, logger: logger}
}

// ImportHandler はリクエストボディの YAML からタスクを作成します。
func (h *TransferHandler) ImportHandler(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	n, err := importer.Import(c.Request.Context(), h.taskService, body)
	if err != nil {
		if n > 0 {
			h.logger.Warn("import stopped partway", "imported", n, "err", err)
		}
		respondError(c, h.logger, "import tasks", err)
		return
	}
	h.logger.Info("tasks imported", "count", n)
	c.JSON(http.StatusOK, gin.H{"imported": n})
}

// ExportHandler はすべてのタスクを YAML で返します。
func (h *TransferHandler) ExportHandler(c *gin.Context) {
	var buf bytes.Buffer
	if err := importer.Export(c.Request.Context(), h.taskService, &buf); err != nil {
		respondError(c, h.logger, "export tasks", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="todoease.yaml"`)
	c.Data(http.StatusOK, "application/x-yaml; charset=utf-8", buf.Bytes())
}
