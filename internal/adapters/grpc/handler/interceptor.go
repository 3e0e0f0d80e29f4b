package handler

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/ogurasousui/codex-employee-import/internal/platform/access"
	"github.com/ogurasousui/codex-employee-import/internal/platform/logging"
)

// RoleMetadataKey は呼び出し元のロールを運ぶメタデータキーです。
const RoleMetadataKey = "x-role"

// Authorizer はアクセス判定を行います。
type Authorizer interface {
	Authorize(ctx context.Context, role, object, action string) error
}

type permission struct {
	object string
	action string
}

var methodPermissions = map[string]permission{
	"/" + importServiceName + "/StageBatch":       {access.ObjectEmployeeImport, access.ActionRun},
	"/" + importServiceName + "/ListBatches":      {access.ObjectEmployeeImport, access.ActionView},
	"/" + importServiceName + "/GetSelection":     {access.ObjectEmployeeImport, access.ActionView},
	"/" + importServiceName + "/ChooseBatches":    {access.ObjectEmployeeImport, access.ActionRun},
	"/" + importServiceName + "/RunImport":        {access.ObjectEmployeeImport, access.ActionRun},
	"/" + employeeServiceName + "/GetEmployee":    {access.ObjectEmployee, access.ActionView},
	"/" + employeeServiceName + "/ListEmployees":  {access.ObjectEmployee, access.ActionView},
	"/" + employeeServiceName + "/DeleteEmployee": {access.ObjectEmployee, access.ActionDelete},
}

// LoggingUnaryInterceptor はリクエスト単位のロガーをコンテキストに格納し、結果を記録します。
func LoggingUnaryInterceptor(logger *logrus.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		entry := logrus.NewEntry(logger).WithFields(logrus.Fields{
			"request_id": uuid.NewString(),
			"method":     info.FullMethod,
		})
		ctx = logging.WithContext(ctx, entry)

		start := time.Now()
		resp, err := next(ctx, req)

		entry = entry.WithFields(logrus.Fields{
			"code":     status.Code(err).String(),
			"duration": time.Since(start),
		})
		if err != nil {
			entry.WithError(err).Warn("grpc request failed")
		} else {
			entry.Info("grpc request")
		}
		return resp, err
	}
}

// AccessOptions はロール解決の設定です。
type AccessOptions struct {
	DefaultRole string
	// TrustRoleMetadata が true のときだけ x-role メタデータを採用します。認証済みプロキシの背後でのみ有効にします。
	TrustRoleMetadata bool
}

// AccessUnaryInterceptor はメソッドごとのポリシーを適用します。
func AccessUnaryInterceptor(authz Authorizer, opts AccessOptions) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		perm, ok := methodPermissions[info.FullMethod]
		if !ok {
			return next(ctx, req)
		}

		role := opts.roleFrom(ctx)
		if err := authz.Authorize(ctx, role, perm.object, perm.action); err != nil {
			if st, ok := status.FromError(toStatusError(err)); ok && st.Code() == codes.PermissionDenied {
				return nil, st.Err()
			}
			return nil, status.Error(codes.Internal, "access check failed")
		}
		return next(ctx, req)
	}
}

func (o AccessOptions) roleFrom(ctx context.Context) string {
	if !o.TrustRoleMetadata {
		return o.DefaultRole
	}
	md, _ := metadata.FromIncomingContext(ctx)
	for _, v := range md.Get(RoleMetadataKey) {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return o.DefaultRole
}
