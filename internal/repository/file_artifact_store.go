package repository

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"FinDash/internal/domain/models"
	domrepo "FinDash/internal/domain/repository"
	"FinDash/pkg/util"

	"github.com/google/uuid"
)

// FileArtifactStore keeps one file per (kind, ticker) under a model directory:
// <kind>_<ticker>.gob for binary models and forecast_model_<ticker>.json.
type FileArtifactStore struct {
	dir    string
	staged bool
}

// NewFileArtifactStore creates a store. With staged set, a ticker's artifacts only
// appear once Commit succeeds; otherwise each Write is published immediately.
func NewFileArtifactStore(dir string, staged bool) *FileArtifactStore {
	return &FileArtifactStore{dir: dir, staged: staged}
}

// Dir returns the model directory.
func (s *FileArtifactStore) Dir() string { return s.dir }

// Path returns where an artifact lives.
func (s *FileArtifactStore) Path(kind models.ArtifactKind, ticker string) string {
	return filepath.Join(s.dir, fileName(kind, ticker))
}

func fileName(kind models.ArtifactKind, ticker string) string {
	return fmt.Sprintf("%s_%s.%s", kind, util.SafeFileComponent(ticker), extension(kind))
}

func extension(kind models.ArtifactKind) string {
	if kind == models.ArtifactForecastModel {
		return "json"
	}
	return "gob"
}

func (s *FileArtifactStore) Open(ticker string) (domrepo.ArtifactWriter, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}
	w := &fileArtifactWriter{store: s, ticker: ticker}
	if s.staged {
		w.stage = filepath.Join(s.dir, ".staging-"+uuid.NewString())
		if err := os.Mkdir(w.stage, 0o755); err != nil {
			return nil, fmt.Errorf("create staging dir: %w", err)
		}
	}
	return w, nil
}

func (s *FileArtifactStore) Load(kind models.ArtifactKind, ticker string, v interface{}) error {
	b, err := os.ReadFile(s.Path(kind, ticker))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s for %s: %w", kind, ticker, domrepo.ErrArtifactNotFound)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", kind, err)
	}
	return decode(kind, b, v)
}

type fileArtifactWriter struct {
	store   *FileArtifactStore
	ticker  string
	stage   string
	written []models.ArtifactKind
	done    bool
}

func (w *fileArtifactWriter) Write(kind models.ArtifactKind, v interface{}) error {
	if w.done {
		return fmt.Errorf("write %s: writer already closed", kind)
	}
	b, err := encode(kind, v)
	if err != nil {
		return err
	}
	dir := w.store.dir
	if w.stage != "" {
		dir = w.stage
	}
	if err := writeFileAtomic(filepath.Join(dir, fileName(kind, w.ticker)), b); err != nil {
		return fmt.Errorf("persist %s: %w", kind, err)
	}
	w.written = append(w.written, kind)
	return nil
}

func (w *fileArtifactWriter) Commit() error {
	if w.done {
		return nil
	}
	w.done = true
	if w.stage == "" {
		return nil
	}
	defer os.RemoveAll(w.stage)
	for _, kind := range w.written {
		name := fileName(kind, w.ticker)
		if err := os.Rename(filepath.Join(w.stage, name), filepath.Join(w.store.dir, name)); err != nil {
			return fmt.Errorf("commit %s: %w", kind, err)
		}
	}
	return nil
}

func (w *fileArtifactWriter) Discard() error {
	if w.done {
		return nil
	}
	w.done = true
	if w.stage == "" {
		return nil
	}
	return os.RemoveAll(w.stage)
}

func encode(kind models.ArtifactKind, v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if extension(kind) == "json" {
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("encode %s: %w", kind, err)
		}
		return buf.Bytes(), nil
	}
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	return buf.Bytes(), nil
}

func decode(kind models.ArtifactKind, b []byte, v interface{}) error {
	var err error
	if extension(kind) == "json" {
		err = json.Unmarshal(b, v)
	} else {
		err = gob.NewDecoder(bytes.NewReader(b)).Decode(v)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", kind, err)
	}
	return nil
}

// writeFileAtomic writes to a temp file in the target directory and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
