package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// RunLog represents a single manifest run
type RunLog struct {
	Timestamp  time.Time `json:"timestamp"`
	RunID      string    `json:"run_id"`
	Command    string    `json:"command"`
	Root       string    `json:"root"`
	Manifest   string    `json:"manifest"`
	Files      int       `json:"files"`
	Bytes      int64     `json:"bytes"`
	Pruned     int       `json:"pruned,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
}

// Logger records one line per run: a short summary on the console and a
// JSON entry in an optional append-only file.
type Logger struct {
	mu      sync.Mutex
	file    *os.File
	console io.Writer
	now     func() time.Time
}

// NewLogger returns a run logger printing summaries to console. A nil
// console disables them.
func NewLogger(console io.Writer) *Logger {
	return &Logger{console: console, now: time.Now}
}

// SetOutput sets the JSON log file. Entries are appended.
func (l *Logger) SetOutput(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		l.file.Close()
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	l.file = f
	return nil
}

// Log writes a run log entry
func (l *Logger) Log(entry *RunLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.Timestamp = l.now()

	if l.console != nil {
		status := "✓"
		if !entry.Success {
			status = "✗"
		}
		pruned := ""
		if entry.Pruned > 0 {
			pruned = fmt.Sprintf(" [pruned:%d]", entry.Pruned)
		}
		fmt.Fprintf(l.console, "[%s] %s %s %d files %d bytes %dms%s\n",
			entry.Command, status, entry.Manifest, entry.Files, entry.Bytes, entry.DurationMs, pruned)
		if entry.Error != "" {
			fmt.Fprintf(l.console, "[%s]   error: %s\n", entry.Command, entry.Error)
		}
	}

	if l.file != nil {
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if _, err := l.file.Write(append(data, '\n')); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the log file
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}
