package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/oriys/nimap/internal/nihash"
)

const maxLineSize = 1 << 20

// Parse reads manifest lines from r. Each line must be an identifier, one
// space and a non-empty escaped path; a missing final newline is tolerated.
func Parse(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var entries []Entry
	n := 0
	for sc.Scan() {
		n++
		e, err := parseLine(sc.Text())
		if err != nil {
			return nil, &ParseError{Line: n, Msg: err.Error()}
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return entries, nil
}

func parseLine(line string) (Entry, error) {
	id, p, ok := strings.Cut(line, " ")
	if !ok {
		return Entry{}, fmt.Errorf("missing separator")
	}
	if !nihash.Valid(id) {
		return Entry{}, fmt.Errorf("invalid identifier %q", id)
	}
	if p == "" {
		return Entry{}, fmt.Errorf("empty path")
	}
	if strings.ContainsAny(p, " \t\r") {
		return Entry{}, fmt.Errorf("unescaped whitespace in path %q", p)
	}
	return Entry{ID: id, Path: p}, nil
}

// ReadFile parses the manifest at path.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}
