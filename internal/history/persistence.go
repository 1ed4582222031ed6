package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SchemaVersion is the current persistence schema version.
const SchemaVersion = 1

// maxLineSize bounds a single JSONL record.
const maxLineSize = 1024 * 1024

// ErrUnsupportedSchema is returned when the history file was written by a
// newer version.
var ErrUnsupportedSchema = errors.New("unsupported history schema version")

// schemaHeader is the first line of the JSONL file.
type schemaHeader struct {
	SchemaVersion int   `json:"notistack_schema_version"`
	CreatedAt     int64 `json:"created_at"`
}

// jsonlFile stores entries in a JSONL file. The daemon appends while the
// CLI reads and clears, so the file is opened per operation and
// replaced atomically on rewrite.
type jsonlFile struct {
	mu   sync.Mutex
	path string
}

func newJSONLFile(path string) (*jsonlFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return &jsonlFile{path: path}, nil
}

// load reads all entries. A missing file is empty history; malformed lines
// are skipped and counted.
func (p *jsonlFile) load() ([]Entry, int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	file, err := os.Open(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", p.path, err)
	}
	defer file.Close()

	var entries []Entry
	skipped := 0

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	first := true
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		if first {
			first = false
			var header schemaHeader
			if err := json.Unmarshal(line, &header); err == nil && header.SchemaVersion > 0 {
				if header.SchemaVersion > SchemaVersion {
					return nil, 0, fmt.Errorf("%w: %d (max: %d)",
						ErrUnsupportedSchema, header.SchemaVersion, SchemaVersion)
				}
				continue
			}
		}

		var e Entry
		if err := json.Unmarshal(line, &e); err != nil || e.HistoryID == "" {
			skipped++
			continue
		}
		entries = append(entries, e)
	}

	if err := scanner.Err(); err != nil {
		return entries, skipped, fmt.Errorf("read %s: %w", p.path, err)
	}
	return entries, skipped, nil
}

// appendEntry writes one entry, adding the header to a new file.
func (p *jsonlFile) appendEntry(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	file, err := os.OpenFile(p.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", p.path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if info.Size() == 0 {
		if err := writeHeader(&buf); err != nil {
			return err
		}
	}
	buf.Write(data)
	buf.WriteByte('\n')

	if _, err := file.Write(buf.Bytes()); err != nil {
		return err
	}
	return file.Sync()
}

// rewrite replaces the file with the given entries.
func (p *jsonlFile) rewrite(entries []Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(p.path), filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := writeHeader(w); err != nil {
		tmp.Close()
		return err
	}
	enc := json.NewEncoder(w)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p.path)
}

func writeHeader(w io.Writer) error {
	data, err := json.Marshal(schemaHeader{
		SchemaVersion: SchemaVersion,
		CreatedAt:     time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
