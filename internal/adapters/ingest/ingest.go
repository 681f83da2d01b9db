package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pranch555/F1-Prediction/internal/domain/features"
	"github.com/pranch555/F1-Prediction/internal/domain/table"
	"github.com/pranch555/F1-Prediction/pkg/logger"
	"github.com/pranch555/F1-Prediction/pkg/metrics"
)

// Loader reads the configured CSV files into a table set.
type Loader struct {
	dir    string
	files  map[string]string
	logger logger.Logger
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{files: map[string]string{}}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logger.Get().Named("ingest")
	}
	return l
}

// Load reads every configured table. A missing results file is fatal and
// wraps features.ErrMissingTable; other missing files are logged and skipped.
func (l *Loader) Load(ctx context.Context) (table.Set, error) {
	if _, ok := l.files[features.TableResults]; !ok {
		return nil, fmt.Errorf("no file configured for %q: %w", features.TableResults, features.ErrMissingTable)
	}
	names := make([]string, 0, len(l.files))
	for name := range l.files {
		names = append(names, name)
	}
	sort.Strings(names)

	set := make(table.Set, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := l.resolve(l.files[name])
		t, err := ReadFile(path, name)
		switch {
		case errors.Is(err, fs.ErrNotExist) && name != features.TableResults:
			l.logger.Warn(ctx, "optional table missing, skipping", logger.String("table", name), logger.String("path", path))
			continue
		case errors.Is(err, fs.ErrNotExist):
			metrics.RecordError("ingest", "missing_table")
			return nil, fmt.Errorf("%s: %w", path, features.ErrMissingTable)
		case err != nil && name != features.TableResults:
			metrics.RecordError("ingest", "read")
			l.logger.Warn(ctx, "optional table unreadable, skipping", logger.String("table", name), logger.String("path", path), logger.Error(err))
			continue
		case err != nil:
			metrics.RecordError("ingest", "read")
			return nil, err
		}
		set[name] = t
		metrics.RecordTableLoaded(name, t.Len())
		l.logger.Debug(ctx, "table loaded", logger.String("table", name), logger.Int("rows", t.Len()))
	}
	if _, ok := set.Get(features.TableResults); !ok {
		return nil, fmt.Errorf("%q has no rows: %w", features.TableResults, features.ErrMissingTable)
	}
	return set, nil
}

func (l *Loader) resolve(path string) string {
	if filepath.IsAbs(path) || l.dir == "" {
		return path
	}
	return filepath.Join(l.dir, path)
}

// ReadFile reads one CSV file as a table.
func ReadFile(path, name string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := ReadCSV(f, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ReadCSV parses CSV with a header row. Cells are kept as trimmed strings;
// numeric coercion happens when columns are read.
func ReadCSV(r io.Reader, name string) (*table.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return table.New(name)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	cells := make([][]string, len(header))
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		for j := range header {
			var v string
			if j < len(rec) {
				v = strings.TrimSpace(rec[j])
			}
			cells[j] = append(cells[j], v)
		}
	}
	names := uniqueHeaders(header)
	cols := make([]table.Column, len(header))
	for j, name := range names {
		cols[j] = table.NewColumn(name, cells[j])
	}
	return table.New(name, cols...)
}

// uniqueHeaders trims header names and suffixes repeats with .1, .2, ...
// so that a repeated header keeps its first occurrence under the plain name.
func uniqueHeaders(header []string) []string {
	out := make([]string, len(header))
	taken := make(map[string]bool, len(header))
	for j, h := range header {
		h = strings.TrimSpace(h)
		name := h
		for k := 1; taken[name]; k++ {
			name = h + "." + strconv.Itoa(k)
		}
		taken[name] = true
		out[j] = name
	}
	return out
}
