package services

import (
	"errors"
	"fmt"
	"strings"

	"todoease/internal/models"
)

// ErrInvalidInput は不正な入力 (日付フォーマット、空のタイトルなど) を表します。
var ErrInvalidInput = errors.New("invalid input")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ParseDateParam は "YYYY-MM-DD" を解析し、失敗した場合は ErrInvalidInput を返します。
func ParseDateParam(name, value string) (models.Date, error) {
	if strings.TrimSpace(value) == "" {
		return models.Date{}, invalidf("%s is required", name)
	}
	d, err := models.ParseDate(value)
	if err != nil {
		return models.Date{}, invalidf("%s %q is not a valid YYYY-MM-DD date: %v", name, value, err)
	}
	return d, nil
}
