package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"todoease/internal/models"
	"todoease/internal/services"
)

// TaskHandler はタスク・サブタスク関連のハンドラーを管理します。
type TaskHandler struct {
	taskService *services.TaskService
	logger      *log.Logger
}

// NewTaskHandler は新しいTaskHandlerを作成します。
func NewTaskHandler(taskService *services.TaskService, logger *log.Logger) *TaskHandler {
	return &TaskHandler{taskService: taskService, logger: logger}
}

// GetTasksHandler はすべてのタスクをサブタスク付きで返します。
func (h *TaskHandler) GetTasksHandler(c *gin.Context) {
	tasks, err := h.taskService.ListTasks(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "retrieve tasks", err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// GetTaskByIDHandler は指定IDのタスクを返します。
func (h *TaskHandler) GetTaskByIDHandler(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	task, err := h.taskService.GetTask(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "retrieve task", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// CreateTaskHandler は新しいタスクを末尾に作成します。
func (h *TaskHandler) CreateTaskHandler(c *gin.Context) {
	var req models.TaskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	task, err := h.taskService.CreateTask(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, "create task", err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// UpdateTaskHandler はタスクを部分更新します。
func (h *TaskHandler) UpdateTaskHandler(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req models.TaskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	task, err := h.taskService.UpdateTask(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.logger, "update task", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTaskHandler はタスクとそのサブタスクを削除します。
func (h *TaskHandler) DeleteTaskHandler(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.taskService.DeleteTask(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, "delete task", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

// ReorderTasksHandler はリクエストボディのID配列の順にタスクを並び替えます。
func (h *TaskHandler) ReorderTasksHandler(c *gin.Context) {
	var ids []int64
	if err := c.ShouldBindJSON(&ids); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	if err := h.taskService.ReorderTasks(c.Request.Context(), ids); err != nil {
		respondError(c, h.logger, "reorder tasks", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tasks reordered"})
}

// GetDescriptionHandler はタスクの説明を HTML に変換して返します。
func (h *TaskHandler) GetDescriptionHandler(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	html, err := h.taskService.RenderDescription(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "render description", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "html": html})
}

// CreateSubTaskHandler はタスクにサブタスクを追加します。
func (h *TaskHandler) CreateSubTaskHandler(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req models.SubTaskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	st, err := h.taskService.CreateSubTask(c.Request.Context(), taskID, req)
	if err != nil {
		respondError(c, h.logger, "create subtask", err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

// UpdateSubTaskHandler はサブタスクを部分更新します。
func (h *TaskHandler) UpdateSubTaskHandler(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req models.SubTaskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	st, err := h.taskService.UpdateSubTask(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.logger, "update subtask", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// DeleteSubTaskHandler はサブタスクを削除します。
func (h *TaskHandler) DeleteSubTaskHandler(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.taskService.DeleteSubTask(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, "delete subtask", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subtask deleted"})
}

// ReorderSubTasksHandler はタスク内のサブタスクを並び替えます。
func (h *TaskHandler) ReorderSubTasksHandler(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var ids []int64
	if err := c.ShouldBindJSON(&ids); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	if err := h.taskService.ReorderSubTasks(c.Request.Context(), taskID, ids); err != nil {
		respondError(c, h.logger, "reorder subtasks", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subtasks reordered"})
}
