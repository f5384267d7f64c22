package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/scatter/pkg/dump"
	"github.com/matzehuels/scatter/pkg/errors"
	"github.com/matzehuels/scatter/pkg/observability"
	"github.com/matzehuels/scatter/pkg/schema"
	"github.com/matzehuels/scatter/pkg/store"
)

// NodeInfo is the list entry of GET /nodes.
type NodeInfo struct {
	ID       string `json:"id"`
	SchemaID string `json:"schemaId,omitempty"`
	IsArray  bool   `json:"isArray"`
	RefCount int    `json:"refCount"`
	Orphan   bool   `json:"orphan"`
}

// Stats is the body of GET /stats.
type Stats struct {
	Nodes   int `json:"nodes"`
	Arrays  int `json:"arrays"`
	Refs    int `json:"refs"`
	Orphans int `json:"orphans"`
}

// SchemaInfo is the body of GET /schemas/*.
type SchemaInfo struct {
	ID                string            `json:"id"`
	Type              string            `json:"type"`
	Title             string            `json:"title,omitempty"`
	Extends           []string          `json:"extends,omitempty"`
	Properties        map[string]string `json:"properties,omitempty"`
	PatternProperties []string          `json:"patternProperties,omitempty"`
	Items             string            `json:"items,omitempty"`
}

// DumpResponse is the body of GET /nodes/{id}/dump.
type DumpResponse struct {
	Records []dump.Record `json:"records"`
	Skipped []string      `json:"skipped,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// observe reports every request to the HTTP hooks and logs it at debug.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		start := time.Now()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, dur)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", dur,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Nodes: s.store.Len(), Orphans: len(s.store.Orphans())}
	for _, n := range s.store.Nodes() {
		if n.IsArray() {
			st.Arrays++
		}
		st.Refs += len(n.RefKeys())
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes := s.store.Nodes()
	out := make([]NodeInfo, len(nodes))
	for i, n := range nodes {
		out[i] = NodeInfo{
			ID:       n.ID(),
			SchemaID: n.Schema().ID(),
			IsArray:  n.IsArray(),
			RefCount: n.RefCount(),
			Orphan:   s.store.IsOrphan(n),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleOrphans(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := []string{}
	for _, n := range s.store.Orphans() {
		ids = append(ids, n.ID())
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.node(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dump.DumpOne(n))
}

func (s *Server) handleDump(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.node(w, r)
	if !ok {
		return
	}
	opts := dump.Options{Entries: []any{n}}
	if skip := r.URL.Query().Get("skip"); skip != "" {
		opts.Skips = store.SelectIDs(strings.Split(skip, ",")...)
	}
	res := dump.Dump(s.store, opts)
	writeJSON(w, http.StatusOK, DumpResponse{Records: res.Records, Skipped: res.Skipped})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.node(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, n.Snapshot())
}

func (s *Server) handleSchemas(w http.ResponseWriter, r *http.Request) {
	ids := s.store.Registry().IDs()
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	query, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, http.StatusBadRequest, string(errors.ErrCodeInvalidInput), err.Error())
		return
	}
	sc := s.store.Registry().Get(query)
	if sc == nil {
		writeError(w, http.StatusNotFound, string(errors.ErrCodeMissingSchema), "unknown schema "+query)
		return
	}
	writeJSON(w, http.StatusOK, describeSchema(sc))
}

// node resolves the {id} parameter or writes the error response.
func (s *Server) node(w http.ResponseWriter, r *http.Request) (*store.Node, bool) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err == nil {
		err = errors.ValidateNodeID(id)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, string(errors.ErrCodeInvalidInput), errors.UserMessage(err))
		return nil, false
	}
	n := s.store.Get(id)
	if n == nil {
		writeError(w, http.StatusNotFound, string(errors.ErrCodeNotFound), "unknown node "+id)
		return nil, false
	}
	return n, true
}

func describeSchema(sc *schema.Schema) SchemaInfo {
	info := SchemaInfo{
		ID:                sc.ID(),
		Type:              sc.Type(),
		Title:             sc.Title(),
		PatternProperties: sc.PatternProperties(),
	}
	for _, parent := range sc.Extends() {
		info.Extends = append(info.Extends, parent.ID())
	}
	if names := sc.PropertyNames(); len(names) > 0 {
		info.Properties = make(map[string]string, len(names))
		for _, name := range names {
			info.Properties[name] = refName(sc.Property(name))
		}
	}
	if items := sc.Items(); items != nil {
		info.Items = refName(items)
	}
	if len(info.PatternProperties) == 0 {
		info.PatternProperties = nil
	}
	return info
}

// refName names primitives by type tag and everything else by id.
func refName(sc *schema.Schema) string {
	if sc.IsPrimitive() {
		return sc.Type()
	}
	return sc.ID()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}
