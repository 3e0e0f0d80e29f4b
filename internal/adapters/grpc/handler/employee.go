package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/ogurasousui/codex-employee-import/internal/core/employee"
)

const employeeServiceName = "employeeimport.v1.EmployeeService"

// EmployeeServiceServer は EmployeeService のサーバー側インターフェースです。
type EmployeeServiceServer interface {
	GetEmployee(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	ListEmployees(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteEmployee(context.Context, *wrapperspb.Int64Value) (*emptypb.Empty, error)
}

// EmployeeServiceDesc は EmployeeService のサービス定義です。
var EmployeeServiceDesc = grpc.ServiceDesc{
	ServiceName: employeeServiceName,
	HandlerType: (*EmployeeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetEmployee", Handler: unaryHandler(employeeServiceName, "GetEmployee", EmployeeServiceServer.GetEmployee)},
		{MethodName: "ListEmployees", Handler: unaryHandler(employeeServiceName, "ListEmployees", EmployeeServiceServer.ListEmployees)},
		{MethodName: "DeleteEmployee", Handler: unaryHandler(employeeServiceName, "DeleteEmployee", EmployeeServiceServer.DeleteEmployee)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "employeeimport/v1/employee.proto",
}

// RegisterEmployeeServiceServer は srv を登録します。
func RegisterEmployeeServiceServer(s grpc.ServiceRegistrar, srv EmployeeServiceServer) {
	s.RegisterService(&EmployeeServiceDesc, srv)
}

// EmployeeGrpcHandler は EmployeeService の gRPC 実装です。
type EmployeeGrpcHandler struct {
	svc employee.UseCase
}

// NewEmployeeGrpcHandler は EmployeeGrpcHandler を生成します。
func NewEmployeeGrpcHandler(svc employee.UseCase) *EmployeeGrpcHandler {
	return &EmployeeGrpcHandler{svc: svc}
}

// GetEmployee は社員を取得します。
func (h *EmployeeGrpcHandler) GetEmployee(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	found, err := h.svc.GetEmployee(ctx, employee.GetEmployeeInput{ID: req.GetValue()})
	if err != nil {
		return nil, toStatusError(err)
	}
	return employeeStruct(found), nil
}

// ListEmployees は社員一覧を返します。リクエストは {"page_size", "page_token"} です。
func (h *EmployeeGrpcHandler) ListEmployees(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := employee.ListEmployeesInput{
		PageSize:  int(req.GetFields()[fieldPageSize].GetNumberValue()),
		PageToken: req.GetFields()[fieldPageToken].GetStringValue(),
	}
	res, err := h.svc.ListEmployees(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(res.Employees))}
	for _, e := range res.Employees {
		list.Values = append(list.Values, structpb.NewStructValue(employeeStruct(e)))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldEmployees:     structpb.NewListValue(list),
		fieldNextPageToken: structpb.NewStringValue(res.NextPageToken),
	}}, nil
}

// DeleteEmployee は社員を削除します。
func (h *EmployeeGrpcHandler) DeleteEmployee(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	if err := h.svc.DeleteEmployee(ctx, employee.DeleteEmployeeInput{ID: req.GetValue()}); err != nil {
		return nil, toStatusError(err)
	}
	return &emptypb.Empty{}, nil
}

var _ EmployeeServiceServer = (*EmployeeGrpcHandler)(nil)
