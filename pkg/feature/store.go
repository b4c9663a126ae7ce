package feature

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sync"
)

// defaultFileMode is the permission of a newly created feature file.
const defaultFileMode = 0o644

// Store is an append-only sink of feature records.
type Store interface {
	Append(ctx context.Context, rec Record) error
}

// CSVStore appends records to a CSV file. Each append opens the file,
// writes one row, flushes, syncs and closes it, so an interrupted run leaves
// a valid prefix. Appends are serialized.
type CSVStore struct {
	path string
	mu   sync.Mutex
}

// NewCSVStore returns a store appending to path. The file is created on the
// first append when missing.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the destination file.
func (s *CSVStore) Path() string {
	return s.path
}

// Append writes rec durably.
func (s *CSVStore) Append(ctx context.Context, rec Record) (err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ErrStoreWrite, ctxErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, defaultFileMode)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrStoreWrite, s.path, err)
	}

	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			err = errors.Join(err, fmt.Errorf("%w: close %s: %w", ErrStoreWrite, s.path, closeErr))
		}
	}()

	writer := csv.NewWriter(file)

	writeErr := writer.Write(rec.Row())
	if writeErr != nil {
		return fmt.Errorf("%w: %w", ErrStoreWrite, writeErr)
	}

	writer.Flush()

	flushErr := writer.Error()
	if flushErr != nil {
		return fmt.Errorf("%w: flush: %w", ErrStoreWrite, flushErr)
	}

	syncErr := file.Sync()
	if syncErr != nil {
		return fmt.Errorf("%w: sync: %w", ErrStoreWrite, syncErr)
	}

	return nil
}

// MemoryStore keeps records in memory.
type MemoryStore struct {
	records []Record
	mu      sync.Mutex
}

// Append stores rec.
func (s *MemoryStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)

	return nil
}

// Records returns a copy of the stored records.
func (s *MemoryStore) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)

	return out
}
