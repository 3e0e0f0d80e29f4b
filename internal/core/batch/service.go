package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

const maxNameAttempts = 5

// Service はバッチの書き出し・一覧・読み出しをまとめます。
type Service struct {
	store     Store
	clock     Clock
	newSuffix func() string
}

// NewService は Service を生成します。
func NewService(store Store, clock Clock) *Service {
	if clock == nil {
		clock = realClock{}
	}
	return &Service{store: store, clock: clock, newSuffix: randomSuffix}
}

// Stage は行を 1 つの CSV バッチとして書き出し、作成したファイル名を返します。
// 同一秒に書き出されたバッチとは衝突サフィックスで区別します。
func (s *Service) Stage(ctx context.Context, rows []Row) (string, error) {
	if len(rows) == 0 {
		return "", ErrEmptyBatch
	}

	data, err := Encode(rows)
	if err != nil {
		return "", err
	}

	base := strconv.FormatInt(s.clock.Now().Unix(), 10)
	name := base + ".csv"
	for attempt := 1; ; attempt++ {
		err := s.store.Create(ctx, name, data)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, ErrBatchExists) || attempt >= maxNameAttempts {
			return "", fmt.Errorf("batch: write %s: %w", name, err)
		}
		name = base + "-" + s.newSuffix() + ".csv"
	}
}

// List はステージング済みバッチ名を昇順で返します。
func (s *Service) List(ctx context.Context) ([]string, error) {
	names, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("batch: list: %w", err)
	}

	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if !IsBatchName(name) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// Each はバッチの行をファイル順に fn へ渡します。
func (s *Service) Each(ctx context.Context, name string, fn func(Record) error) error {
	if !IsBatchName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	rc, err := s.store.Open(ctx, name)
	if err != nil {
		return fmt.Errorf("batch: open %s: %w", name, err)
	}
	defer rc.Close()

	return Decode(rc, fn)
}

// Delete はバッチを削除します。
func (s *Service) Delete(ctx context.Context, name string) error {
	if !IsBatchName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := s.store.Delete(ctx, name); err != nil {
		return fmt.Errorf("batch: delete %s: %w", name, err)
	}
	return nil
}

func randomSuffix() string {
	return uuid.NewString()[:8]
}
