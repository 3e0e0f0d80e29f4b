package employeeimport

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidSession = errors.New("employeeimport: invalid session id")
	ErrInvalidRows    = errors.New("employeeimport: invalid rows")
)

// StaleSelectionMessage は選択が最新のステージング領域と一致しない場合の案内文です。
const StaleSelectionMessage = "Employees list is not up to date. Please regenerate employee data"

// FieldError は入力行 1 項目の検証エラーです。
type FieldError struct {
	Index int
	Field string
	Tag   string
}

// ValidationError は入力行の検証エラーをまとめます。
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("row %d %s: %s", f.Index, f.Field, f.Tag))
	}
	return fmt.Sprintf("%v: %s", ErrInvalidRows, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRows
}
