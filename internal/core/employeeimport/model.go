package employeeimport

// RowInput は入力画面 1 行分の値です。
type RowInput struct {
	Name  string `form:"name" json:"name" validate:"required"`
	Email string `form:"email" json:"email" validate:"required,email"`
}

// Outcome はインポート実行の結果種別です。
type Outcome string

const (
	OutcomeImported Outcome = "imported"
	OutcomeEmpty    Outcome = "empty"
	OutcomeStale    Outcome = "stale"
)

// 画面と API で共通の案内文です。
const (
	MessageSaved    = "Data has been saved"
	MessageImported = "Data has been imported"
	MessageEmpty    = "No data to import"
	MessageNoBatch  = "There are no CSVs to import"
	MessageNoChoice = "No file chosen"
)

// Message は結果種別に対応する案内文を返します。
func (o Outcome) Message() string {
	switch o {
	case OutcomeImported:
		return MessageImported
	case OutcomeEmpty:
		return MessageEmpty
	case OutcomeStale:
		return StaleSelectionMessage
	default:
		return ""
	}
}

// SaveBatchInput はバッチ保存時の入力です。
type SaveBatchInput struct {
	SessionID string
	Rows      []RowInput
}

// SaveBatchResult はバッチ保存結果です。
type SaveBatchResult struct {
	Batch string
	Rows  int
}

// ChooseBatchesInput はバッチ選択時の入力です。
type ChooseBatchesInput struct {
	SessionID string
	Batches   []string
}

// RunImportInput はインポート実行時の入力です。
type RunImportInput struct {
	SessionID string
}

// RowFailure は取り込めなかった行です。Line が 0 の場合はバッチ全体の失敗です。
type RowFailure struct {
	Batch string
	Line  int
	Err   error
}

// RunImportResult はインポート実行結果です。
type RunImportResult struct {
	Outcome  Outcome
	Selected []string
	Missing  []string
	Created  int
	Failures []RowFailure
}

// Partial は一部の行だけが取り込まれたかどうかを返します。
func (r *RunImportResult) Partial() bool {
	return r.Outcome == OutcomeImported && len(r.Failures) > 0
}
