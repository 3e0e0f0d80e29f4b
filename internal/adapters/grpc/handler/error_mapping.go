package handler

import (
	"errors"

	"github.com/ogurasousui/codex-employee-import/internal/core/batch"
	"github.com/ogurasousui/codex-employee-import/internal/core/employee"
	"github.com/ogurasousui/codex-employee-import/internal/core/employeeimport"
	"github.com/ogurasousui/codex-employee-import/internal/platform/access"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toStatusError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, employeeimport.ErrInvalidSession),
		errors.Is(err, employeeimport.ErrInvalidRows),
		errors.Is(err, batch.ErrInvalidName),
		errors.Is(err, batch.ErrEmptyBatch),
		errors.Is(err, employee.ErrInvalidID),
		errors.Is(err, employee.ErrInvalidName),
		errors.Is(err, employee.ErrInvalidEmail),
		errors.Is(err, employee.ErrInvalidPageSize),
		errors.Is(err, employee.ErrInvalidPageToken):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, employee.ErrEmployeeNotFound), errors.Is(err, batch.ErrBatchNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, access.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
