package models

import "math"

// TaskStats は GET /api/stats のレスポンスです。
type TaskStats struct {
	TotalTasks           int     `json:"total_tasks"`
	CompletedTasks       int     `json:"completed_tasks"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

// MonthlyStats は GET /api/stats/monthly のレスポンスです。
type MonthlyStats struct {
	Year                 int     `json:"year"`
	Month                int     `json:"month"`
	TotalTasks           int     `json:"total_tasks"`
	CompletedTasks       int     `json:"completed_tasks"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

// DailyStat は1日分のタスク数と完了数です。
type DailyStat struct {
	Date      Date `json:"date"`
	Total     int  `json:"total"`
	Completed int  `json:"completed"`
}

// CalendarSummary は GET /api/calendar/summary のレスポンスです。
// タスクが1件もない日は DailyStats に含まれません。
type CalendarSummary struct {
	Year       int         `json:"year"`
	Month      int         `json:"month"`
	DailyStats []DailyStat `json:"daily_stats"`
}

// CompletionPercentage は 100 × completed / total を小数第1位で丸めた値です。total が0なら0を返します。
// ちょうど中間の値は偶数側に丸めます (1/16 = 6.25 は 6.2)。
func CompletionPercentage(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct := float64(completed) / float64(total) * 100
	return math.RoundToEven(pct*10) / 10
}
