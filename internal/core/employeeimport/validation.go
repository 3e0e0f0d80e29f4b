package employeeimport

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateRows は入力行を検証します。問題が無ければ nil を返します。
func ValidateRows(rows []RowInput) *ValidationError {
	var fields []FieldError
	if len(rows) == 0 {
		fields = append(fields, FieldError{Index: 0, Field: "name", Tag: "required"})
	}

	for i, row := range rows {
		row.Name = strings.TrimSpace(row.Name)
		row.Email = strings.TrimSpace(row.Email)

		err := validate.Struct(row)
		if err == nil {
			continue
		}

		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			fields = append(fields, FieldError{Index: i, Field: "name", Tag: "invalid"})
			continue
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{Index: i, Field: strings.ToLower(fe.Field()), Tag: fe.Tag()})
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
