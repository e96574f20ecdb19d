package decisions

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/domain"
	"github.com/NeuralTrust/TrustShield/pkg/domain/decision"
)

const StoreCSV = "csv"

var csvHeader = []string{"time", "ip", "requests_per_min", "session_duration", "failed_login", "score"}

// CSVStore appends anomaly records to a human-readable CSV log. Reads scan the
// whole file, which is fine for the log sizes a single gate produces.
type CSVStore struct {
	mu   sync.Mutex
	path string
}

func NewCSVStore(path string) (*CSVStore, error) {
	if path == "" {
		return nil, domain.NewConfigurationError("csv store path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, domain.NewPersistenceError("create csv directory", err)
		}
	}
	s := &CSVStore{path: path}
	f, err := s.openForAppend()
	if err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, domain.NewPersistenceError("close csv log", err)
	}
	return s, nil
}

// openForAppend opens the log and writes the header when the file is new.
func (s *CSVStore) openForAppend() (*os.File, error) {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, domain.NewPersistenceError("open csv log", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, domain.NewPersistenceError("stat csv log", err)
	}
	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(csvHeader); err != nil {
			_ = f.Close()
			return nil, domain.NewPersistenceError("write csv header", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = f.Close()
			return nil, domain.NewPersistenceError("write csv header", err)
		}
	}
	return f, nil
}

func (s *CSVStore) Append(ctx context.Context, record *decision.Record) error {
	if err := ctx.Err(); err != nil {
		return domain.NewPersistenceError("append csv record", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.openForAppend()
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(toRow(record)); err != nil {
		_ = f.Close()
		return domain.NewPersistenceError("append csv record", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return domain.NewPersistenceError("append csv record", err)
	}
	if err := f.Close(); err != nil {
		return domain.NewPersistenceError("close csv log", err)
	}
	return nil
}

func (s *CSVStore) Recent(ctx context.Context, limit int) ([]decision.Record, error) {
	rows, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > len(rows) {
		limit = len(rows)
	}
	out := make([]decision.Record, 0, limit)
	for i := len(rows) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, rows[i])
	}
	return out, nil
}

func (s *CSVStore) Count(ctx context.Context) (int64, error) {
	rows, err := s.readAll(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

func (s *CSVStore) Close() error {
	return nil
}

// readAll returns every well-formed row in file order. Rows that cannot be
// parsed, such as a line truncated by a crash, are skipped.
func (s *CSVStore) readAll(ctx context.Context) ([]decision.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewPersistenceError("read csv log", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewPersistenceError("open csv log", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	var out []decision.Record
	first := true
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return nil, domain.NewPersistenceError("read csv log", err)
		}
		if first {
			first = false
			if len(row) > 0 && row[0] == csvHeader[0] {
				continue
			}
		}
		if rec, ok := fromRow(row); ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func toRow(r *decision.Record) []string {
	return []string{
		r.Timestamp.UTC().Format(decision.TimeLayout),
		r.Origin,
		strconv.FormatFloat(r.RequestsPerMin, 'f', -1, 64),
		strconv.FormatFloat(r.SessionDuration, 'f', -1, 64),
		strconv.Itoa(r.FailedLogin),
		strconv.Itoa(r.Score),
	}
}

func fromRow(row []string) (decision.Record, bool) {
	if len(row) != len(csvHeader) {
		return decision.Record{}, false
	}
	ts, err := time.ParseInLocation(decision.TimeLayout, row[0], time.UTC)
	if err != nil {
		return decision.Record{}, false
	}
	rpm, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return decision.Record{}, false
	}
	session, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return decision.Record{}, false
	}
	failed, err := strconv.Atoi(row[4])
	if err != nil {
		return decision.Record{}, false
	}
	score, err := strconv.Atoi(row[5])
	if err != nil {
		return decision.Record{}, false
	}
	return decision.Record{
		Timestamp:       ts,
		Origin:          row[1],
		RequestsPerMin:  rpm,
		SessionDuration: session,
		FailedLogin:     failed,
		Score:           score,
	}, true
}
