package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/oriys/nimap/internal/logging"
	"github.com/oriys/nimap/internal/metrics"
	"github.com/oriys/nimap/internal/nihash"
	"github.com/oriys/nimap/internal/observability"
	"github.com/oriys/nimap/internal/paths"
	"github.com/oriys/nimap/internal/walker"
)

// Options configures a manifest run.
type Options struct {
	Root   string
	Output string
	// Exclude names directories that are never descended into. Nil means
	// walker.DefaultExclude.
	Exclude []string
}

// Summary describes a finished (or aborted) run.
type Summary struct {
	RunID    string        `json:"run_id" yaml:"run_id"`
	Files    int           `json:"files" yaml:"files"`
	Bytes    int64         `json:"bytes" yaml:"bytes"`
	Dirs     int           `json:"dirs" yaml:"dirs"`
	Pruned   int           `json:"pruned" yaml:"pruned"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Generate writes the manifest of opts.Root to opts.Output, replacing any
// previous manifest. Files are listed in walk order: pre-order by directory,
// by name within a directory. The manifest file itself is never listed.
//
// Any listing, read or write failure aborts the run. The partially written
// manifest is left in place and must not be trusted.
func Generate(ctx context.Context, opts Options) (sum Summary, err error) {
	start := time.Now()
	sum.RunID = uuid.NewString()

	ctx, span := observability.StartSpan(ctx, "manifest.generate",
		observability.AttrRunID.String(sum.RunID),
		observability.AttrRoot.String(opts.Root),
		observability.AttrManifest.String(opts.Output),
	)
	log := logging.WithRun(sum.RunID)
	if tid := observability.TraceID(ctx); tid != "" {
		log = log.With("trace_id", tid)
	}
	defer func() {
		sum.Duration = time.Since(start)
		span.SetAttributes(
			observability.AttrFiles.Int(sum.Files),
			observability.AttrBytes.Int64(sum.Bytes),
		)
		if err != nil {
			observability.SetSpanError(span, err)
		} else {
			observability.SetSpanOK(span)
		}
		span.End()
		metrics.RecordRun("generate", sum.Duration, sum.Files, err == nil)
	}()

	w, err := Create(opts.Output)
	if err != nil {
		return sum, err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	self, err := w.Stat()
	if err != nil {
		return sum, &OpError{Op: "create", Path: opts.Output, Err: err}
	}

	log.Debug("manifest run started", "root", opts.Root, "output", opts.Output)

	for v, werr := range walker.Walk(opts.Root, walker.Options{Exclude: opts.Exclude}) {
		if werr != nil {
			return sum, walkError(opts.Root, werr)
		}
		sum.Dirs++
		sum.Pruned += len(v.Pruned)
		metrics.RecordDir(len(v.Pruned))
		if len(v.Pruned) > 0 {
			log.Debug("pruned directories", "dir", v.Dir, "names", v.Pruned)
		}

		for _, name := range v.Files {
			if err := ctx.Err(); err != nil {
				return sum, err
			}

			full := walker.Join(v.Dir, name)
			info, err := os.Stat(full)
			if err != nil {
				return sum, &OpError{Op: "read", Path: full, Err: err}
			}
			if os.SameFile(info, self) {
				log.Debug("skipping manifest output", "path", full)
				continue
			}
			content, err := readFile(full, info)
			if err != nil {
				return sum, &OpError{Op: "read", Path: full, Err: err}
			}

			e := Entry{
				ID:   nihash.Encode(content),
				Path: paths.Normalize(v.Rel + "/" + name),
			}
			if err := w.Write(e); err != nil {
				return sum, err
			}
			sum.Files++
			sum.Bytes += int64(len(content))
			metrics.RecordFile(int64(len(content)))
		}
	}

	log.Info("manifest written", "output", opts.Output, "files", sum.Files, "bytes", sum.Bytes,
		"dirs", sum.Dirs, "pruned", sum.Pruned, "duration", time.Since(start))
	return sum, nil
}

func walkError(root string, err error) *OpError {
	var le *walker.Error
	if errors.As(err, &le) {
		return &OpError{Op: "walk", Path: le.Dir, Err: le.Err}
	}
	return &OpError{Op: "walk", Path: root, Err: err}
}

// readFile reads a regular file in full as raw bytes. info comes from a
// prior stat so FIFOs and devices are rejected instead of blocking.
func readFile(name string, info os.FileInfo) ([]byte, error) {
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file (%s)", info.Mode().Type())
	}
	return os.ReadFile(name)
}
