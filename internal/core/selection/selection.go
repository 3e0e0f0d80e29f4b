package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// Namespace は社員インポートのセッション状態を他のセッションデータと分離します。
	Namespace = "employee_import"
	// KeySelectedBatches は選択中バッチ名一覧のキーです。
	KeySelectedBatches = "csvs"
)

var (
	ErrInvalidSession = errors.New("selection: invalid session id")
	ErrCorruptValue   = errors.New("selection: corrupt stored value")
)

// Store はセッション単位のキーバリューストアの抽象です。
// 値が未設定の場合、Get は nil と nil エラーを返します。
type Store interface {
	Get(ctx context.Context, sessionID, namespace, key string) ([]byte, error)
	Set(ctx context.Context, sessionID, namespace, key string, value []byte) error
}

// Service は選択中バッチ名一覧を読み書きします。
// 同一セッションからの同時書き込みは後勝ちで、排他は行いません。
type Service struct {
	store Store
}

// NewService は Service を生成します。
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get は選択中のバッチ名一覧を返します。未設定なら空です。
func (s *Service) Get(ctx context.Context, sessionID string) ([]string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	raw, err := s.store.Get(ctx, sessionID, Namespace, KeySelectedBatches)
	if err != nil {
		return nil, fmt.Errorf("selection: get: %w", err)
	}
	if len(raw) == 0 {
		return []string{}, nil
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptValue, err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Set は選択中のバッチ名一覧を丸ごと置き換えます。空文字と重複は取り除き、順序は保持します。
func (s *Service) Set(ctx context.Context, sessionID string, names []string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}

	normalized := normalize(names)
	raw, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("selection: encode: %w", err)
	}

	if err := s.store.Set(ctx, sessionID, Namespace, KeySelectedBatches, raw); err != nil {
		return fmt.Errorf("selection: set: %w", err)
	}
	return nil
}

// Clear は選択を空にします。
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.Set(ctx, sessionID, nil)
}

func normalize(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
