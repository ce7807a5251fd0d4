package manifest

import (
	"fmt"
)

// OpError records the operation and path that aborted a run.
type OpError struct {
	Op   string // "create", "walk", "read", "write" or "close"
	Path string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// ParseError reports a malformed manifest line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("manifest line %d: %s", e.Line, e.Msg)
}
