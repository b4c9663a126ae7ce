// Package feature writes and reads feature records: one row per classified
// node with its change category and structural context.
package feature

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// recordFields is the fixed width of a feature row.
const recordFields = 5

// Sentinel errors.
var (
	ErrStoreWrite = errors.New("feature store write failed")
	ErrBadRecord  = errors.New("malformed feature record")
)

// Record is one feature row.
type Record struct {
	Repo            string `json:"repo" yaml:"repo"`
	Revision        string `json:"revision" yaml:"revision"`
	Change          string `json:"change" yaml:"change"`
	ParentKind      string `json:"parent_kind" yaml:"parent_kind"`
	GrandparentKind string `json:"grandparent_kind" yaml:"grandparent_kind"`
}

// Row returns the record as CSV fields.
func (r Record) Row() []string {
	return []string{r.Repo, r.Revision, r.Change, r.ParentKind, r.GrandparentKind}
}

// ReadRecords parses a feature CSV stream.
func ReadRecords(reader io.Reader) ([]Record, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = recordFields

	var records []Record

	for {
		row, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}

		if err != nil {
			return records, fmt.Errorf("%w: %w", ErrBadRecord, err)
		}

		records = append(records, Record{
			Repo:            row[0],
			Revision:        row[1],
			Change:          row[2],
			ParentKind:      row[3],
			GrandparentKind: row[4],
		})
	}
}
