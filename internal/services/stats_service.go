package services

import (
	"context"
	"time"

	"todoease/internal/models"
	"todoease/internal/repositories"
)

// StatsService は日付での絞り込みと集計を扱います。
type StatsService struct {
	taskRepo *repositories.TaskRepository
}

// NewStatsService は新しいStatsServiceを作成します。
func NewStatsService(taskRepo *repositories.TaskRepository) *StatsService {
	return &StatsService{taskRepo: taskRepo}
}

// CompletionStats は全タスクの件数・完了数・完了率を返します。
func (s *StatsService) CompletionStats(ctx context.Context) (*models.TaskStats, error) {
	total, completed, err := s.taskRepo.Counts(ctx)
	if err != nil {
		return nil, err
	}
	return &models.TaskStats{
		TotalTasks:           total,
		CompletedTasks:       completed,
		CompletionPercentage: models.CompletionPercentage(completed, total),
	}, nil
}

// TasksByDate は task_date が date のタスクを返します。
func (s *StatsService) TasksByDate(ctx context.Context, date string) ([]*models.Task, error) {
	d, err := ParseDateParam("date", date)
	if err != nil {
		return nil, err
	}
	return s.taskRepo.FindByDate(ctx, d)
}

// TasksByDateRange は [start, end] のタスクを task_date の降順で返します。
// start > end の場合は空の結果になります。
func (s *StatsService) TasksByDateRange(ctx context.Context, start, end string) ([]*models.Task, error) {
	from, err := ParseDateParam("start_date", start)
	if err != nil {
		return nil, err
	}
	to, err := ParseDateParam("end_date", end)
	if err != nil {
		return nil, err
	}
	return s.taskRepo.FindByDateRange(ctx, from, to)
}

// MonthWindow は [その月の1日, 翌月の1日) を返します。12月の翌月は翌年1月です。
func MonthWindow(year, month int) (start, end models.Date, err error) {
	if month < 1 || month > 12 {
		return models.Date{}, models.Date{}, invalidf("month must be between 1 and 12, got %d", month)
	}
	if year < 1 || year > 9999 {
		return models.Date{}, models.Date{}, invalidf("year must be between 1 and 9999, got %d", year)
	}
	start = models.MonthStart(year, time.Month(month))
	end = start.AddMonths(1)
	// task_date は YYYY-MM-DD の文字列で比較されるため、5桁の年は範囲に使えない
	if end.Year() > 9999 {
		return models.Date{}, models.Date{}, invalidf("month %04d-%02d has no representable end date", year, month)
	}
	return start, end, nil
}

// CalendarSummary は月内の日ごとのタスク数と完了数を返します。タスクのない日は省略されます。
func (s *StatsService) CalendarSummary(ctx context.Context, year, month int) (*models.CalendarSummary, error) {
	start, end, err := MonthWindow(year, month)
	if err != nil {
		return nil, err
	}
	daily, err := s.taskRepo.DailyCountsBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return &models.CalendarSummary{Year: year, Month: month, DailyStats: daily}, nil
}

// MonthlyStats は月内のタスク数・完了数・完了率を返します。
func (s *StatsService) MonthlyStats(ctx context.Context, year, month int) (*models.MonthlyStats, error) {
	start, end, err := MonthWindow(year, month)
	if err != nil {
		return nil, err
	}
	total, completed, err := s.taskRepo.CountsBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return &models.MonthlyStats{
		Year:                 year,
		Month:                month,
		TotalTasks:           total,
		CompletedTasks:       completed,
		CompletionPercentage: models.CompletionPercentage(completed, total),
	}, nil
}
