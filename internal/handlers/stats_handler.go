package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"todoease/internal/services"
)

// StatsHandler は日付検索と集計のハンドラーを管理します。
type StatsHandler struct {
	statsService *services.StatsService
	logger       *log.Logger
}

// NewStatsHandler は新しいStatsHandlerを作成します。
func NewStatsHandler(statsService *services.StatsService, logger *log.Logger) *StatsHandler {
	return &StatsHandler{statsService: statsService, logger: logger}
}

// GetStatsHandler は全体の完了率を返します。
func (h *StatsHandler) GetStatsHandler(c *gin.Context) {
	stats, err := h.statsService.CompletionStats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "compute stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetTasksByDateHandler は ?date=YYYY-MM-DD のタスクを返します。
func (h *StatsHandler) GetTasksByDateHandler(c *gin.Context) {
	tasks, err := h.statsService.TasksByDate(c.Request.Context(), c.Query("date"))
	if err != nil {
		respondError(c, h.logger, "retrieve tasks by date", err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// GetTasksByDateRangeHandler は ?start_date=&end_date= の範囲のタスクを返します。
func (h *StatsHandler) GetTasksByDateRangeHandler(c *gin.Context) {
	tasks, err := h.statsService.TasksByDateRange(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		respondError(c, h.logger, "retrieve tasks by date range", err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// GetCalendarSummaryHandler は ?year=&month= の日別集計を返します。
func (h *StatsHandler) GetCalendarSummaryHandler(c *gin.Context) {
	year, ok := parseIntQuery(c, "year")
	if !ok {
		return
	}
	month, ok := parseIntQuery(c, "month")
	if !ok {
		return
	}
	summary, err := h.statsService.CalendarSummary(c.Request.Context(), year, month)
	if err != nil {
		respondError(c, h.logger, "compute calendar summary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetMonthlyStatsHandler は ?year=&month= の月間集計を返します。
func (h *StatsHandler) GetMonthlyStatsHandler(c *gin.Context) {
	year, ok := parseIntQuery(c, "year")
	if !ok {
		return
	}
	month, ok := parseIntQuery(c, "month")
	if !ok {
		return
	}
	stats, err := h.statsService.MonthlyStats(c.Request.Context(), year, month)
	if err != nil {
		respondError(c, h.logger, "compute monthly stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
