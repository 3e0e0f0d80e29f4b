package memory

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var errInvalidSession = errors.New("memory session: empty session id")

type entryKey struct {
	session   string
	namespace string
	key       string
}

// Store はプロセス内メモリに保持するセッションストアです。再起動で内容は失われます。
// 各値は最後の Set から ttl が経つと破棄されます。
type Store struct {
	values *expirable.LRU[entryKey, []byte]
}

// New は空の Store を返します。ttl が 0 以下なら期限を設けません。
func New(ttl time.Duration) *Store {
	return &Store{values: expirable.NewLRU[entryKey, []byte](0, nil, ttl)}
}

// Get は保存値のコピーを返します。未設定または期限切れなら nil です。
func (s *Store) Get(_ context.Context, sessionID, namespace, key string) ([]byte, error) {
	if sessionID == "" {
		return nil, errInvalidSession
	}

	v, ok := s.values.Get(entryKey{sessionID, namespace, key})
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

// Set は値を置き換え、期限を延長します。
func (s *Store) Set(_ context.Context, sessionID, namespace, key string, value []byte) error {
	if sessionID == "" {
		return errInvalidSession
	}

	s.values.Add(entryKey{sessionID, namespace, key}, append([]byte(nil), value...))
	return nil
}

// Len は保持している値の数を返します。
func (s *Store) Len() int {
	return s.values.Len()
}
