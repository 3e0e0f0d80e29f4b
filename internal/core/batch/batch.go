package batch

import (
	"context"
	"errors"
	"io"
	"regexp"
)

var (
	ErrEmptyBatch     = errors.New("batch: no rows")
	ErrBatchExists    = errors.New("batch: already exists")
	ErrBatchNotFound  = errors.New("batch: not found")
	ErrInvalidName    = errors.New("batch: invalid name")
	ErrMalformedRow   = errors.New("batch: malformed row")
	ErrMalformedBatch = errors.New("batch: malformed csv")
)

// namePattern はステージング済みバッチとして扱うファイル名です。
// 秒単位の UNIX 時刻に、衝突時のみ 8 桁の16進サフィックスが付きます。
var namePattern = regexp.MustCompile(`^\d+(-[0-9a-f]{8})?\.csv$`)

// Row は社員 1 名分の行 (name, email) です。
type Row struct {
	Name  string
	Email string
}

// Record はバッチから読み出した 1 行です。Err が非 nil の行は取り込み対象外です。
type Record struct {
	Line int
	Row  Row
	Err  error
}

// Store はステージング領域の抽象です。
type Store interface {
	// Create は name で新規作成します。既に存在する場合は ErrBatchExists を返します。
	Create(ctx context.Context, name string, data []byte) error
	// Open は既存バッチを読み出します。存在しない場合は ErrBatchNotFound を返します。
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// List はステージング領域のファイル名を返します。領域が存在しない場合は空です。
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// IsBatchName は name がバッチ名の形式かどうかを返します。
func IsBatchName(name string) bool {
	return namePattern.MatchString(name)
}
