package handler

import (
	"fmt"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ogurasousui/codex-employee-import/internal/core/employee"
	"github.com/ogurasousui/codex-employee-import/internal/core/employeeimport"
)

// メッセージは protobuf の既知型で表現します。フィールド名は snake_case です。
const (
	fieldName          = "name"
	fieldEmail         = "email"
	fieldBatch         = "batch"
	fieldRows          = "rows"
	fieldMessage       = "message"
	fieldOutcome       = "outcome"
	fieldSelected      = "selected"
	fieldMissing       = "missing"
	fieldCreated       = "created"
	fieldFailures      = "failures"
	fieldLine          = "line"
	fieldError         = "error"
	fieldID            = "id"
	fieldCreatedAt     = "created_at"
	fieldUpdatedAt     = "updated_at"
	fieldEmployees     = "employees"
	fieldPageSize      = "page_size"
	fieldPageToken     = "page_token"
	fieldNextPageToken = "next_page_token"
)

func stringList(values []string) *structpb.ListValue {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(values))}
	for _, v := range values {
		list.Values = append(list.Values, structpb.NewStringValue(v))
	}
	return list
}

func stringsFrom(list *structpb.ListValue) ([]string, error) {
	out := make([]string, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("item %d must be a string", i))
		}
		out = append(out, s.StringValue)
	}
	return out, nil
}

// rowsFrom は [{"name": ..., "email": ...}, ...] を入力行に変換します。
func rowsFrom(list *structpb.ListValue) ([]employeeimport.RowInput, error) {
	rows := make([]employeeimport.RowInput, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		row := v.GetStructValue()
		if row == nil {
			return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("row %d must be an object", i))
		}
		rows = append(rows, employeeimport.RowInput{
			Name:  row.GetFields()[fieldName].GetStringValue(),
			Email: row.GetFields()[fieldEmail].GetStringValue(),
		})
	}
	return rows, nil
}

func runImportStruct(res *employeeimport.RunImportResult) *structpb.Struct {
	failures := &structpb.ListValue{}
	for _, f := range res.Failures {
		failures.Values = append(failures.Values, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			fieldBatch: structpb.NewStringValue(f.Batch),
			fieldLine:  structpb.NewNumberValue(float64(f.Line)),
			fieldError: structpb.NewStringValue(f.Err.Error()),
		}}))
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldOutcome:  structpb.NewStringValue(string(res.Outcome)),
		fieldMessage:  structpb.NewStringValue(res.Outcome.Message()),
		fieldSelected: structpb.NewListValue(stringList(res.Selected)),
		fieldMissing:  structpb.NewListValue(stringList(res.Missing)),
		fieldCreated:  structpb.NewNumberValue(float64(res.Created)),
		fieldFailures: structpb.NewListValue(failures),
	}}
}

func employeeStruct(e *employee.Employee) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldID:        structpb.NewNumberValue(float64(e.ID)),
		fieldName:      structpb.NewStringValue(e.Name),
		fieldEmail:     structpb.NewStringValue(e.Email),
		fieldCreatedAt: structpb.NewStringValue(e.CreatedAt.UTC().Format(time.RFC3339Nano)),
		fieldUpdatedAt: structpb.NewStringValue(e.UpdatedAt.UTC().Format(time.RFC3339Nano)),
	}}
}
