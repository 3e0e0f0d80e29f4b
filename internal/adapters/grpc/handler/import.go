package handler

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ogurasousui/codex-employee-import/internal/core/employeeimport"
)

// SessionMetadataKey はワークフローのセッション ID を運ぶメタデータキーです。
const SessionMetadataKey = "x-session-id"

const importServiceName = "employeeimport.v1.ImportService"

// ImportServiceServer は ImportService のサーバー側インターフェースです。
// StageBatch は {"name","email"} オブジェクトのリストを受け取り、ChooseBatches はバッチ名のリストを受け取ります。
type ImportServiceServer interface {
	StageBatch(context.Context, *structpb.ListValue) (*structpb.Struct, error)
	ListBatches(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	GetSelection(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	ChooseBatches(context.Context, *structpb.ListValue) (*structpb.ListValue, error)
	RunImport(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// ImportServiceDesc は ImportService のサービス定義です。
var ImportServiceDesc = grpc.ServiceDesc{
	ServiceName: importServiceName,
	HandlerType: (*ImportServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "StageBatch", Handler: unaryHandler(importServiceName, "StageBatch", ImportServiceServer.StageBatch)},
		{MethodName: "ListBatches", Handler: unaryHandler(importServiceName, "ListBatches", ImportServiceServer.ListBatches)},
		{MethodName: "GetSelection", Handler: unaryHandler(importServiceName, "GetSelection", ImportServiceServer.GetSelection)},
		{MethodName: "ChooseBatches", Handler: unaryHandler(importServiceName, "ChooseBatches", ImportServiceServer.ChooseBatches)},
		{MethodName: "RunImport", Handler: unaryHandler(importServiceName, "RunImport", ImportServiceServer.RunImport)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "employeeimport/v1/import.proto",
}

// RegisterImportServiceServer は srv を登録します。
func RegisterImportServiceServer(s grpc.ServiceRegistrar, srv ImportServiceServer) {
	s.RegisterService(&ImportServiceDesc, srv)
}

func unaryHandler[S any, Req any, Resp any](service, method string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	fullMethod := "/" + service + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(S), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(S), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ImportGrpcHandler は ImportService の gRPC 実装です。
type ImportGrpcHandler struct {
	svc employeeimport.UseCase
}

// NewImportGrpcHandler は ImportGrpcHandler を生成します。
func NewImportGrpcHandler(svc employeeimport.UseCase) *ImportGrpcHandler {
	return &ImportGrpcHandler{svc: svc}
}

// StageBatch は入力行を 1 つのバッチとして保存します。
func (h *ImportGrpcHandler) StageBatch(ctx context.Context, req *structpb.ListValue) (*structpb.Struct, error) {
	sessionID, err := sessionFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := rowsFrom(req)
	if err != nil {
		return nil, err
	}

	res, err := h.svc.SaveBatch(ctx, employeeimport.SaveBatchInput{SessionID: sessionID, Rows: rows})
	if err != nil {
		return nil, toStatusError(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldBatch:   structpb.NewStringValue(res.Batch),
		fieldRows:    structpb.NewNumberValue(float64(res.Rows)),
		fieldMessage: structpb.NewStringValue(employeeimport.MessageSaved),
	}}, nil
}

// ListBatches はステージング済みバッチ名を返します。
func (h *ImportGrpcHandler) ListBatches(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	names, err := h.svc.Batches(ctx)
	if err != nil {
		return nil, toStatusError(err)
	}
	return stringList(names), nil
}

// GetSelection は現在の選択を返します。
func (h *ImportGrpcHandler) GetSelection(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	sessionID, err := sessionFromContext(ctx)
	if err != nil {
		return nil, err
	}

	names, err := h.svc.Selection(ctx, sessionID)
	if err != nil {
		return nil, toStatusError(err)
	}
	return stringList(names), nil
}

// ChooseBatches は選択を置き換えます。
func (h *ImportGrpcHandler) ChooseBatches(ctx context.Context, req *structpb.ListValue) (*structpb.ListValue, error) {
	sessionID, err := sessionFromContext(ctx)
	if err != nil {
		return nil, err
	}

	chosen, err := stringsFrom(req)
	if err != nil {
		return nil, err
	}

	names, err := h.svc.ChooseBatches(ctx, employeeimport.ChooseBatchesInput{SessionID: sessionID, Batches: chosen})
	if err != nil {
		return nil, toStatusError(err)
	}
	return stringList(names), nil
}

// RunImport は選択中のバッチを取り込みます。選択が古い場合も結果として返します。
func (h *ImportGrpcHandler) RunImport(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	sessionID, err := sessionFromContext(ctx)
	if err != nil {
		return nil, err
	}

	res, err := h.svc.RunImport(ctx, employeeimport.RunImportInput{SessionID: sessionID})
	if err != nil {
		return nil, toStatusError(err)
	}
	return runImportStruct(res), nil
}

func sessionFromContext(ctx context.Context) (string, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	for _, v := range md.Get(SessionMetadataKey) {
		if v = strings.TrimSpace(v); v != "" {
			return v, nil
		}
	}
	return "", status.Error(codes.InvalidArgument, SessionMetadataKey+" metadata is required")
}

var _ ImportServiceServer = (*ImportGrpcHandler)(nil)
