package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ogurasousui/codex-employee-import/internal/core/batch"
)

const tempPattern = ".tmp-*"

// Store はローカルディレクトリをステージング領域として扱う batch.Store 実装です。
// ディレクトリは最初の書き込み時に親ディレクトリごと作成します。
type Store struct {
	dir string
}

// New は dir を使う Store を返します。
func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("fs staging: directory required")
	}
	return &Store{dir: filepath.Clean(dir)}, nil
}

// Dir はステージングディレクトリを返します。
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) pathFor(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", batch.ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name), nil
}

// Create は一時ファイルへ書き出した後、既存ファイルを上書きしないようリンクで公開します。
func (s *Store) Create(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := s.pathFor(name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("fs staging: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, tempPattern)
	if err != nil {
		return fmt.Errorf("fs staging: create temp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("fs staging: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("fs staging: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("fs staging: close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("fs staging: chmod: %w", err)
	}

	if err := os.Link(tmp.Name(), target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return batch.ErrBatchExists
		}
		return fmt.Errorf("fs staging: publish %s: %w", name, err)
	}
	return nil
}

// Open はバッチファイルを開きます。
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.pathFor(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, batch.ErrBatchNotFound
		}
		return nil, fmt.Errorf("fs staging: open %s: %w", name, err)
	}
	return f, nil
}

// List はディレクトリ直下の通常ファイル名を返します。ディレクトリが無ければ空です。
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("fs staging: read dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// Delete はバッチファイルを削除します。存在しない場合は何もしません。
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathFor(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("fs staging: delete %s: %w", name, err)
	}
	return nil
}

var _ batch.Store = (*Store)(nil)
