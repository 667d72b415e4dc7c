package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/tally/internal/model"
)

// ErrUnsupportedFormat is returned when no reader handles a file extension.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Reader converts a tabular file into a Dataset.
type Reader interface {
	Read(r io.Reader) (model.Dataset, error)
	Format() string
}

// Registry holds readers keyed by file extension (without the dot).
type Registry struct {
	readers map[string]Reader
}

// NewRegistry creates an empty reader registry.
func NewRegistry() *Registry {
	return &Registry{readers: make(map[string]Reader)}
}

// Register adds a reader. Panics on duplicate format.
func (r *Registry) Register(rd Reader) {
	key := strings.ToLower(rd.Format())
	if _, ok := r.readers[key]; ok {
		panic("duplicate reader format: " + key)
	}
	r.readers[key] = rd
}

// Get returns the reader for format, or nil.
func (r *Registry) Get(format string) Reader {
	return r.readers[strings.ToLower(strings.TrimPrefix(format, "."))]
}

// DefaultRegistry returns a registry with the CSV and XLSX readers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&CSVReader{})
	r.Register(&XLSXReader{})
	return r
}

// Load reads the file at path with the reader matching its extension.
func (r *Registry) Load(path string) (model.Dataset, error) {
	ext := filepath.Ext(path)
	rd := r.Get(ext)
	if rd == nil {
		return model.Dataset{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	ds, err := rd.Read(f)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return ds, nil
}
