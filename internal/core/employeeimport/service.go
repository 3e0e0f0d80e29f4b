package employeeimport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ogurasousui/codex-employee-import/internal/core/batch"
	"github.com/ogurasousui/codex-employee-import/internal/core/employee"
	"github.com/ogurasousui/codex-employee-import/internal/platform/logging"
)

// Batches はステージング済みバッチの操作です。
type Batches interface {
	Stage(ctx context.Context, rows []batch.Row) (string, error)
	List(ctx context.Context) ([]string, error)
	Each(ctx context.Context, name string, fn func(batch.Record) error) error
	Delete(ctx context.Context, name string) error
}

// Selections はセッション単位の選択状態です。
type Selections interface {
	Get(ctx context.Context, sessionID string) ([]string, error)
	Set(ctx context.Context, sessionID string, names []string) error
	Clear(ctx context.Context, sessionID string) error
}

// EmployeeCreator はステージング済みの行を加工せずに 1 件ずつ永続化します。
type EmployeeCreator interface {
	ImportEmployee(ctx context.Context, in employee.ImportEmployeeInput) (*employee.Employee, error)
}

// Recorder はワークフローの計測値を受け取ります。
type Recorder interface {
	BatchStaged(rows int)
	ImportRun(outcome Outcome)
	RowCommitted()
	RowFailed()
}

type noopRecorder struct{}

func (noopRecorder) BatchStaged(int)   {}
func (noopRecorder) ImportRun(Outcome) {}
func (noopRecorder) RowCommitted()     {}
func (noopRecorder) RowFailed()        {}

// Options はワークフローの挙動を切り替えます。
type Options struct {
	// DeleteAfterImport が true の場合、取り込み後に消費したバッチを削除します。
	DeleteAfterImport bool
}

// UseCase は社員インポートワークフローの公開インターフェースです。
type UseCase interface {
	SaveBatch(ctx context.Context, in SaveBatchInput) (*SaveBatchResult, error)
	Batches(ctx context.Context) ([]string, error)
	Selection(ctx context.Context, sessionID string) ([]string, error)
	ChooseBatches(ctx context.Context, in ChooseBatchesInput) ([]string, error)
	RunImport(ctx context.Context, in RunImportInput) (*RunImportResult, error)
}

// Service は入力・選択・取り込みの 3 段階を順序付けます。
type Service struct {
	batches    Batches
	selections Selections
	employees  EmployeeCreator
	recorder   Recorder
	opts       Options
}

// NewService は Service を生成します。
func NewService(batches Batches, selections Selections, employees EmployeeCreator, recorder Recorder, opts Options) *Service {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{
		batches:    batches,
		selections: selections,
		employees:  employees,
		recorder:   recorder,
		opts:       opts,
	}
}

// SaveBatch は入力行を検証し、選択状態をリセットしてから 1 つのバッチとして書き出します。
func (s *Service) SaveBatch(ctx context.Context, in SaveBatchInput) (*SaveBatchResult, error) {
	if err := requireSession(in.SessionID); err != nil {
		return nil, err
	}
	if verr := ValidateRows(in.Rows); verr != nil {
		return nil, verr
	}

	if err := s.selections.Clear(ctx, in.SessionID); err != nil {
		return nil, err
	}

	rows := make([]batch.Row, 0, len(in.Rows))
	for _, r := range in.Rows {
		rows = append(rows, batch.Row{Name: strings.TrimSpace(r.Name), Email: strings.TrimSpace(r.Email)})
	}

	name, err := s.batches.Stage(context.WithoutCancel(ctx), rows)
	if err != nil {
		return nil, err
	}

	s.recorder.BatchStaged(len(rows))
	logging.FromContext(ctx).WithFields(logrus.Fields{
		"batch": name,
		"rows":  len(rows),
	}).Info("employee batch staged")

	return &SaveBatchResult{Batch: name, Rows: len(rows)}, nil
}

// Batches はステージング済みバッチ名の一覧を返します。
func (s *Service) Batches(ctx context.Context) ([]string, error) {
	return s.batches.List(ctx)
}

// Selection は現在選択中のバッチ名を返します。
func (s *Service) Selection(ctx context.Context, sessionID string) ([]string, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	return s.selections.Get(ctx, sessionID)
}

// ChooseBatches は選択を丸ごと置き換え、保存後の選択を返します。
func (s *Service) ChooseBatches(ctx context.Context, in ChooseBatchesInput) ([]string, error) {
	if err := requireSession(in.SessionID); err != nil {
		return nil, err
	}
	if err := s.selections.Set(ctx, in.SessionID, in.Batches); err != nil {
		return nil, err
	}
	return s.selections.Get(ctx, in.SessionID)
}

// RunImport は選択中のバッチを検証し、行ごとに社員を作成します。
// 選択が古い場合は何も作成せず、選択もそのまま残します。
// 取り込みを開始した後は、途中で失敗しても選択を必ず空にします。
func (s *Service) RunImport(ctx context.Context, in RunImportInput) (result *RunImportResult, err error) {
	if err := requireSession(in.SessionID); err != nil {
		return nil, err
	}

	selected, err := s.selections.Get(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}

	catalog, err := s.batches.List(ctx)
	if err != nil {
		return nil, err
	}

	if missing := missingFrom(selected, catalog); len(missing) > 0 {
		s.recorder.ImportRun(OutcomeStale)
		logging.FromContext(ctx).WithField("missing", missing).Warn("employee import selection is stale")
		return &RunImportResult{Outcome: OutcomeStale, Selected: selected, Missing: missing}, nil
	}

	if len(selected) == 0 {
		s.recorder.ImportRun(OutcomeEmpty)
		return &RunImportResult{Outcome: OutcomeEmpty, Selected: selected}, nil
	}

	// 取り込み中はリクエストのキャンセルで中断しない。
	runCtx := context.WithoutCancel(ctx)
	log := logging.FromContext(ctx)

	defer func() {
		if clearErr := s.selections.Clear(runCtx, in.SessionID); clearErr != nil {
			log.WithError(clearErr).Error("failed to reset employee import selection")
			err = errors.Join(err, clearErr)
		}
	}()

	result = &RunImportResult{Outcome: OutcomeImported, Selected: selected}
	for _, name := range selected {
		if err := s.commitBatch(runCtx, log, name, result); err != nil {
			return nil, err
		}
	}

	if s.opts.DeleteAfterImport {
		for _, name := range selected {
			if err := s.batches.Delete(runCtx, name); err != nil {
				log.WithError(err).WithField("batch", name).Warn("failed to delete consumed batch")
			}
		}
	}

	s.recorder.ImportRun(OutcomeImported)
	log.WithFields(logrus.Fields{
		"batches":  len(selected),
		"created":  result.Created,
		"failures": len(result.Failures),
	}).Info("employee import finished")

	return result, nil
}

func (s *Service) commitBatch(ctx context.Context, log *logrus.Entry, name string, result *RunImportResult) error {
	err := s.batches.Each(ctx, name, func(rec batch.Record) error {
		if rec.Err != nil {
			s.fail(log, result, RowFailure{Batch: name, Line: rec.Line, Err: rec.Err})
			return nil
		}

		if _, err := s.employees.ImportEmployee(ctx, employee.ImportEmployeeInput{
			Name:  rec.Row.Name,
			Email: rec.Row.Email,
		}); err != nil {
			s.fail(log, result, RowFailure{Batch: name, Line: rec.Line, Err: err})
			return nil
		}

		result.Created++
		s.recorder.RowCommitted()
		return nil
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, batch.ErrMalformedBatch):
		s.fail(log, result, RowFailure{Batch: name, Err: err})
		return nil
	default:
		return fmt.Errorf("employeeimport: commit %s: %w", name, err)
	}
}

func (s *Service) fail(log *logrus.Entry, result *RunImportResult, failure RowFailure) {
	result.Failures = append(result.Failures, failure)
	s.recorder.RowFailed()
	log.WithError(failure.Err).WithFields(logrus.Fields{
		"batch": failure.Batch,
		"line":  failure.Line,
	}).Warn("employee row not imported")
}

func missingFrom(selected, catalog []string) []string {
	present := make(map[string]struct{}, len(catalog))
	for _, name := range catalog {
		present[name] = struct{}{}
	}

	var missing []string
	for _, name := range selected {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func requireSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	return nil
}
