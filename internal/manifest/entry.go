// Package manifest writes, reads and checks ni manifests: one
// "<identifier> <escaped path>" line per file of a directory tree.
package manifest

import (
	"bufio"
	"os"
)

// Entry is one manifest line.
type Entry struct {
	ID   string `json:"ni" yaml:"ni"`
	Path string `json:"path" yaml:"path"` // percent-escaped, relative to the root
}

// String returns the line without its trailing newline.
func (e Entry) String() string {
	return e.ID + " " + e.Path
}

// Writer appends entries to a manifest. It owns the underlying file and
// must be closed.
type Writer struct {
	f   *os.File
	buf *bufio.Writer
}

// Create opens path for writing, truncating any previous manifest.
func Create(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, &OpError{Op: "create", Path: path, Err: err}
	}
	return &Writer{f: f, buf: bufio.NewWriter(f)}, nil
}

// Write appends e followed by a newline.
func (w *Writer) Write(e Entry) error {
	if _, err := w.buf.WriteString(e.ID); err != nil {
		return w.opErr("write", err)
	}
	if err := w.buf.WriteByte(' '); err != nil {
		return w.opErr("write", err)
	}
	if _, err := w.buf.WriteString(e.Path); err != nil {
		return w.opErr("write", err)
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return w.opErr("write", err)
	}
	return nil
}

// Stat returns the file info of the manifest being written.
func (w *Writer) Stat() (os.FileInfo, error) {
	return w.f.Stat()
}

// Close flushes buffered lines and closes the file. The file is closed even
// when the flush fails.
func (w *Writer) Close() error {
	ferr := w.buf.Flush()
	cerr := w.f.Close()
	if ferr != nil {
		return w.opErr("write", ferr)
	}
	if cerr != nil {
		return w.opErr("close", cerr)
	}
	return nil
}

func (w *Writer) opErr(op string, err error) error {
	return &OpError{Op: op, Path: w.f.Name(), Err: err}
}
