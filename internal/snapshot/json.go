package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/marathon-cli/internal/model"
)

// JSONFile stores the snapshot as one UTF-8 JSON object on disk.
type JSONFile struct {
	path string
}

// NewJSONFile returns a JSON file backend at path. The file is created on
// first save.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path returns the backing file path.
func (j *JSONFile) Path() string { return j.path }

// Load reads the whole document. A missing file is an empty snapshot.
func (j *JSONFile) Load(_ context.Context) (map[string]model.Event, error) {
	data, err := os.ReadFile(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]model.Event{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "snapshot: read %s", j.path)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]model.Event{}, nil
	}

	events := map[string]model.Event{}
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, eris.Wrapf(err, "snapshot: decode %s", j.path)
	}
	return events, nil
}

// Save rewrites the whole document through a temp file and rename, so a
// crash mid-write leaves the previous snapshot intact.
func (j *JSONFile) Save(_ context.Context, events map[string]model.Event) error {
	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "snapshot: mkdir %s", dir)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(events); err != nil {
		return eris.Wrap(err, "snapshot: encode")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(j.path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "snapshot: create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "snapshot: write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "snapshot: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "snapshot: close temp file")
	}
	if err := os.Rename(tmpName, j.path); err != nil {
		return eris.Wrapf(err, "snapshot: replace %s", j.path)
	}
	return nil
}

// Close is a no-op for the file backend.
func (j *JSONFile) Close() error { return nil }
