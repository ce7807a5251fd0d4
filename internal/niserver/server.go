// Package niserver publishes the files of a manifest under their
// /.well-known/ni paths.
package niserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"sync"
	"time"

	"github.com/oriys/nimap/internal/logging"
	"github.com/oriys/nimap/internal/manifest"
	"github.com/oriys/nimap/internal/metrics"
	"github.com/oriys/nimap/internal/nihash"
	"github.com/oriys/nimap/internal/observability"
	"github.com/oriys/nimap/internal/paths"
)

// Config contains what the server needs to resolve identifiers.
type Config struct {
	Root     string // directory the manifest describes
	Manifest string // manifest file; relative paths are taken as is
	// Authority is the host put in ni URIs reported by /healthz. Empty
	// means the URIs carry no authority.
	Authority string
}

// Server resolves ni identifiers against a manifest index. The index is
// loaded at New and replaced by Reload.
type Server struct {
	cfg Config

	mu     sync.RWMutex
	index  *manifest.Index
	loaded time.Time
}

// New loads the manifest and returns a server for it.
func New(cfg Config) (*Server, error) {
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.Manifest == "" {
		return nil, fmt.Errorf("manifest path is required")
	}
	s := &Server{cfg: cfg}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the manifest. On error the previous index stays active.
func (s *Server) Reload() error {
	ix, err := manifest.LoadIndex(s.cfg.Manifest)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}
	s.mu.Lock()
	s.index = ix
	s.loaded = time.Now()
	s.mu.Unlock()
	logging.Op().Info("manifest loaded", "path", s.cfg.Manifest, "entries", ix.Len(), "distinct", ix.Distinct())
	return nil
}

func (s *Server) currentIndex() *manifest.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// RegisterRoutes registers the resolver routes on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /.well-known/ni/", s.WellKnown)
	mux.HandleFunc("GET /ni", s.Resolve)

	mux.HandleFunc("GET /healthz", s.Health)
	mux.Handle("GET /metrics", metrics.PrometheusHandler())
	mux.Handle("GET /stats", metrics.Global().JSONHandler())
}

// Handler returns the routes wrapped with tracing.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return observability.HTTPMiddleware(mux)
}

// WellKnown handles GET /.well-known/ni/sha-256/{id}. The file is re-hashed
// before it is served; a file whose content changed since the manifest was
// written is refused with 409.
func (s *Server) WellKnown(w http.ResponseWriter, r *http.Request) {
	id, err := nihash.ParseWellKnownPath(r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rel, ok := s.currentIndex().Lookup(id)
	if !ok {
		metrics.RecordLookup("not_found")
		http.Error(w, "unknown identifier", http.StatusNotFound)
		return
	}

	full, err := paths.Resolve(s.cfg.Root, rel)
	if err != nil {
		logging.Op().Warn("manifest path rejected", "path", rel, "error", err)
		http.Error(w, "invalid manifest entry", http.StatusInternalServerError)
		return
	}

	content, info, err := readRegular(full)
	if errors.Is(err, fs.ErrNotExist) {
		metrics.RecordLookup("stale")
		http.Error(w, "file listed in manifest no longer exists", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Op().Error("read failed", "path", full, "error", err)
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}

	if actual := nihash.Encode(content); actual != id {
		metrics.RecordLookup("stale")
		logging.Op().Warn("stale manifest entry", "id", id, "path", rel, "actual", actual)
		http.Error(w, "content changed since the manifest was written", http.StatusConflict)
		return
	}

	metrics.RecordLookup("found")
	digest, _ := nihash.ContentDigest(id)
	w.Header().Set("Digest", digest)
	w.Header().Set("ETag", `"`+id+`"`)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(w, r, path.Base(rel), info.ModTime(), bytes.NewReader(content))
}

// Resolve handles GET /ni?uri=<key>, redirecting any key form nihash.Resolve
// accepts to the well-known path of its identifier.
func (s *Server) Resolve(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("uri")
	if key == "" {
		http.Error(w, "missing uri parameter", http.StatusBadRequest)
		return
	}
	id, err := nihash.Resolve(key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, nihash.WellKnownPath(id), http.StatusFound)
}

type healthResponse struct {
	Status    string    `json:"status"`
	Manifest  string    `json:"manifest"`
	Entries   int       `json:"entries"`
	Distinct  int       `json:"distinct"`
	Authority string    `json:"authority,omitempty"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// Health handles GET /healthz
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := healthResponse{
		Status:    "ok",
		Manifest:  s.cfg.Manifest,
		Entries:   s.index.Len(),
		Distinct:  s.index.Distinct(),
		Authority: s.cfg.Authority,
		LoadedAt:  s.loaded,
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func readRegular(name string) ([]byte, os.FileInfo, error) {
	info, err := os.Stat(name)
	if err != nil {
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, nil, fmt.Errorf("%s: not a regular file", name)
	}
	content, err := os.ReadFile(name)
	if err != nil {
		return nil, nil, err
	}
	return content, info, nil
}
