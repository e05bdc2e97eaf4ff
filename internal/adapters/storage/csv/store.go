// Package csv implements the per-symbol bar store on plain CSV files. Each
// symbol owns one file under the data directory; files replaced after a
// trading-day gap are moved into a timestamped stale archive instead of
// being deleted.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/quantstream/marketd/internal/domain/market"
	"github.com/quantstream/marketd/internal/ports"
)

// Compile-time interface check.
var _ ports.BarStore = (*Store)(nil)

// header is the canonical column order of a series file.
var header = []string{"date", "open", "high", "low", "close", "adj_close", "volume"}

const (
	dateLayout   = "2006-01-02"
	stampLayout  = "20060102_150405"
	staleDirName = "stale"
	dirPerm      = 0o755
)

// Store persists one CSV file per symbol under dataDir. Saves are atomic
// (temp file plus rename) so a crash mid-write never corrupts the cache.
// Safe for concurrent use across symbols; per-symbol callers are expected
// to serialize their own writes, which the feed loop does.
type Store struct {
	dataDir  string
	staleDir string
	logger   *slog.Logger
	now      func() time.Time

	mu sync.Mutex
}

// New creates a Store rooted at dataDir, creating the directory tree as
// needed.
func New(dataDir string, logger *slog.Logger) (*Store, error) {
	staleDir := filepath.Join(dataDir, staleDirName)
	if err := os.MkdirAll(staleDir, dirPerm); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &Store{
		dataDir:  dataDir,
		staleDir: staleDir,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Load reads the persisted series for the symbol. A missing file is not an
// error: it returns (nil, nil) so the caller downloads a fresh series.
func (s *Store) Load(_ context.Context, symbol string) (market.Series, error) {
	path := s.path(symbol)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	series := make(market.Series, 0, len(rows)-1)
	for i, row := range rows[1:] {
		bar, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}
		series = series.Upsert(bar)
	}
	return series, nil
}

// Save persists the series, replacing any previous file atomically.
func (s *Store) Save(_ context.Context, symbol string, series market.Series) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(symbol)

	tmp, err := os.CreateTemp(s.dataDir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := writeSeries(tmp, series); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// Archive moves the symbol's current file into the stale directory with a
// timestamped name. Archiving a symbol with no file is a no-op.
func (s *Store) Archive(ctx context.Context, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(symbol)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	stamp := s.now().Format(stampLayout)
	dest := filepath.Join(s.staleDir, fmt.Sprintf("%s_%s.csv", market.SanitizeSymbol(symbol), stamp))

	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("archiving %s: %w", path, err)
	}

	s.logger.InfoContext(ctx, "archived stale series",
		slog.String("symbol", symbol),
		slog.String("dest", dest),
	)
	return nil
}

// Name identifies the store in readiness reports.
func (s *Store) Name() string { return "bar-store" }

// HealthCheck verifies the data directory is still writable.
func (s *Store) HealthCheck(_ context.Context) error {
	info, err := os.Stat(s.dataDir)
	if err != nil {
		return fmt.Errorf("bar-store: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("bar-store: %s is not a directory", s.dataDir)
	}
	return nil
}

func (s *Store) path(symbol string) string {
	return filepath.Join(s.dataDir, market.SanitizeSymbol(symbol)+".csv")
}

func writeSeries(f *os.File, series market.Series) error {
	w := csv.NewWriter(f)

	if err := w.Write(header); err != nil {
		return err
	}
	for _, bar := range series {
		row := []string{
			bar.Day.Format(dateLayout),
			formatFloat(bar.Open),
			formatFloat(bar.High),
			formatFloat(bar.Low),
			formatFloat(bar.Close),
			formatFloat(bar.AdjClose),
			strconv.FormatInt(bar.Volume, 10),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func parseRow(row []string) (market.Bar, error) {
	if len(row) != len(header) {
		return market.Bar{}, fmt.Errorf("expected %d columns, got %d", len(header), len(row))
	}

	day, err := time.ParseInLocation(dateLayout, row[0], market.Eastern())
	if err != nil {
		return market.Bar{}, fmt.Errorf("parsing date %q: %w", row[0], err)
	}

	values := make([]float64, 5)
	for i, raw := range row[1:6] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("parsing %s %q: %w", header[i+1], raw, err)
		}
		values[i] = v
	}

	volume, err := strconv.ParseInt(row[6], 10, 64)
	if err != nil {
		return market.Bar{}, fmt.Errorf("parsing volume %q: %w", row[6], err)
	}

	return market.Bar{
		Day:      day,
		Open:     values[0],
		High:     values[1],
		Low:      values[2],
		Close:    values[3],
		AdjClose: values[4],
		Volume:   volume,
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
