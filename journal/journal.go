// Package journal persists captured contacts and leads as append-only
// JSON-Lines files.
package journal

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"mentormuni-server/metrics"
	"mentormuni-server/utils"
)

// Kind selects the log an entry belongs to.
type Kind string

const (
	KindContact Kind = "contact"
	KindLead    Kind = "lead"
)

// timestampKey is the field every stored line carries.
const timestampKey = "ts"

var fileNames = map[Kind]string{
	KindContact: "contact_submissions.jsonl",
	KindLead:    "interview_ready_leads.jsonl",
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := fileNames[k]; !ok {
		return "", fmt.Errorf("unknown journal kind %q", s)
	}
	return k, nil
}

// Entry is one stored line.
type Entry map[string]any

// Recorder stores and reads back journal entries.
type Recorder interface {
	Record(ctx context.Context, kind Kind, fields map[string]any) error
	Recent(ctx context.Context, kind Kind, limit int) ([]Entry, error)
}

// FileJournal appends one JSON object per line to a file per kind.
type FileJournal struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time

	// readMu keeps Recent from observing a partially flushed line written by
	// this process; other processes are not coordinated.
	readMu sync.RWMutex
}

// NewFileJournal prepares dir for writing, falling back to the system temp
// directory when dir cannot be created or written.
func NewFileJournal(dir string, logger *zap.Logger) *FileJournal {
	if logger == nil {
		logger = zap.NewNop()
	}
	resolved := resolveDir(dir, logger)
	return &FileJournal{dir: resolved, logger: logger, now: time.Now}
}

func resolveDir(dir string, logger *zap.Logger) string {
	if dir == "" {
		return os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("data dir unavailable, falling back to temp dir", zap.String("dir", dir), zap.Error(err))
		return os.TempDir()
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		logger.Warn("data dir not writable, falling back to temp dir", zap.String("dir", dir), zap.Error(err))
		return os.TempDir()
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)
	return dir
}

// Dir returns the directory files are written to.
func (j *FileJournal) Dir() string {
	return j.dir
}

// Path returns the file backing kind.
func (j *FileJournal) Path(kind Kind) string {
	return filepath.Join(j.dir, fileNames[kind])
}

// Record appends fields with an ISO-8601 UTC timestamp. Nil and blank values
// are dropped. The line is written with a single write on an O_APPEND handle.
func (j *FileJournal) Record(_ context.Context, kind Kind, fields map[string]any) error {
	if _, ok := fileNames[kind]; !ok {
		return fmt.Errorf("unknown journal kind %q", kind)
	}

	entry := utils.NonEmptyFields(fields)
	entry[timestampKey] = j.now().UTC().Format(time.RFC3339Nano)

	line, err := json.Marshal(entry)
	if err != nil {
		metrics.JournalWrites.WithLabelValues(string(kind), "error").Inc()
		return fmt.Errorf("failed to encode %s entry: %w", kind, err)
	}
	line = append(line, '\n')

	j.readMu.RLock()
	defer j.readMu.RUnlock()

	f, err := os.OpenFile(j.Path(kind), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		metrics.JournalWrites.WithLabelValues(string(kind), "error").Inc()
		return fmt.Errorf("failed to open %s journal: %w", kind, err)
	}
	_, werr := f.Write(line)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		metrics.JournalWrites.WithLabelValues(string(kind), "error").Inc()
		return fmt.Errorf("failed to append %s entry: %w", kind, err)
	}

	metrics.JournalWrites.WithLabelValues(string(kind), "ok").Inc()
	return nil
}

// Recent returns up to limit entries, newest first. Lines that are not valid
// JSON objects are skipped.
func (j *FileJournal) Recent(_ context.Context, kind Kind, limit int) ([]Entry, error) {
	if _, ok := fileNames[kind]; !ok {
		return nil, fmt.Errorf("unknown journal kind %q", kind)
	}

	j.readMu.Lock()
	data, err := os.ReadFile(j.Path(kind))
	j.readMu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s journal: %w", kind, err)
	}

	var lines [][]byte
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		lines = append(lines, append([]byte(nil), line...))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s journal: %w", kind, err)
	}

	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}

	out := make([]Entry, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		var e Entry
		if err := json.Unmarshal(lines[i], &e); err != nil {
			j.logger.Debug("skipping corrupt journal line", zap.String("kind", string(kind)), zap.Error(err))
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
