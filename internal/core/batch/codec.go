package batch

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// Encode は行を CSV (name,email) に変換します。
func Encode(rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		if err := w.Write([]string{row.Name, row.Email}); err != nil {
			return nil, fmt.Errorf("batch: encode: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("batch: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode は CSV を先頭から順に読み、1 行ごとに fn を呼び出します。
// 2 列に満たない行は Err に ErrMalformedRow を設定して渡します。
// CSV として解釈できない場合はそれまでの行を渡した後 ErrMalformedBatch を返します。
func Decode(r io.Reader, fn func(Record) error) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return fmt.Errorf("%w: line %d: %v", ErrMalformedBatch, parseErr.StartLine, parseErr.Err)
			}
			return fmt.Errorf("batch: read: %w", err)
		}

		line, _ := reader.FieldPos(0)
		rec := Record{Line: line}
		if len(fields) < 2 {
			rec.Err = fmt.Errorf("%w: line %d has %d field(s)", ErrMalformedRow, line, len(fields))
		} else {
			rec.Row = Row{Name: fields[0], Email: fields[1]}
		}

		if err := fn(rec); err != nil {
			return err
		}
	}
}
