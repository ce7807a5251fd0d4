package manifest

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/oriys/nimap/internal/metrics"
	"github.com/oriys/nimap/internal/nihash"
	"github.com/oriys/nimap/internal/observability"
	"github.com/oriys/nimap/internal/paths"
	"github.com/oriys/nimap/internal/walker"
)

// Status is the outcome of checking one file against a manifest.
type Status string

const (
	StatusOK        Status = "ok"
	StatusModified  Status = "modified"
	StatusMissing   Status = "missing"
	StatusUntracked Status = "untracked"
)

// Result is the check of one path.
type Result struct {
	Path     string `json:"path" yaml:"path"`
	Status   Status `json:"status" yaml:"status"`
	Expected string `json:"expected,omitempty" yaml:"expected,omitempty"`
	Actual   string `json:"actual,omitempty" yaml:"actual,omitempty"`
}

// Report collects the results of Verify: manifest entries first, in
// manifest order, then untracked files in walk order.
type Report struct {
	Results []Result       `json:"results" yaml:"results"`
	Counts  map[Status]int `json:"counts" yaml:"counts"`
}

// Clean reports whether every file matched and nothing was untracked.
func (r *Report) Clean() bool {
	return r.Counts[StatusOK] == len(r.Results)
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	r.Counts[res.Status]++
	metrics.RecordVerifyResult(string(res.Status))
}

// VerifyOptions configures Verify.
type VerifyOptions struct {
	// Exclude is passed to the walker when looking for untracked files.
	Exclude []string
	// Manifest is the manifest's own path; it is not reported as untracked.
	Manifest string
}

// Verify re-hashes every file listed in entries under root and reports
// which still match. It then walks root and reports files the manifest
// does not list. Verify never writes.
//
// Unreadable files and unlistable directories abort the check, as in
// Generate; a missing file is a result, not an error.
func Verify(ctx context.Context, root string, entries []Entry, opts VerifyOptions) (rep *Report, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "manifest.verify",
		observability.AttrRoot.String(root),
		observability.AttrManifest.String(opts.Manifest),
	)
	defer func() {
		if err != nil {
			observability.SetSpanError(span, err)
		}
		span.End()
		metrics.RecordRun("verify", time.Since(start), len(entries), err == nil)
	}()

	rep = &Report{Counts: make(map[Status]int)}
	tracked := make(map[string]struct{}, len(entries))

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tracked[e.Path] = struct{}{}

		full, err := paths.Resolve(root, e.Path)
		if err != nil {
			return nil, &OpError{Op: "read", Path: e.Path, Err: err}
		}
		info, err := os.Stat(full)
		if errors.Is(err, fs.ErrNotExist) {
			rep.add(Result{Path: e.Path, Status: StatusMissing, Expected: e.ID})
			continue
		}
		if err != nil {
			return nil, &OpError{Op: "read", Path: full, Err: err}
		}
		content, err := readFile(full, info)
		if err != nil {
			return nil, &OpError{Op: "read", Path: full, Err: err}
		}

		res := Result{Path: e.Path, Status: StatusOK, Expected: e.ID, Actual: nihash.Encode(content)}
		if res.Actual != res.Expected {
			res.Status = StatusModified
		}
		rep.add(res)
	}

	var self os.FileInfo
	if opts.Manifest != "" {
		self, _ = os.Stat(opts.Manifest)
	}

	for v, werr := range walker.Walk(root, walker.Options{Exclude: opts.Exclude}) {
		if werr != nil {
			return nil, walkError(root, werr)
		}
		for _, name := range v.Files {
			p := paths.Normalize(v.Rel + "/" + name)
			if _, ok := tracked[p]; ok {
				continue
			}
			if self != nil {
				if info, err := os.Stat(walker.Join(v.Dir, name)); err == nil && os.SameFile(info, self) {
					continue
				}
			}
			rep.add(Result{Path: p, Status: StatusUntracked})
		}
	}

	span.SetAttributes(observability.AttrFiles.Int(len(rep.Results)))
	return rep, nil
}
