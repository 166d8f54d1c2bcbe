package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"propindex/pkg/common"
	"propindex/pkg/core"
	"propindex/pkg/logging"
	"propindex/pkg/sql"
)

type Server struct {
	store *core.Store
	log   logging.Logger
	mux   *http.ServeMux
	http  *http.Server
}

func NewServer(store *core.Store, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Discard{}
	}
	s := &Server{store: store, log: logger, mux: http.NewServeMux()}
	s.http = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.mux.HandleFunc("/api/property", s.handlePut)
	s.mux.HandleFunc("/api/insert", s.handleInsert)
	s.mux.HandleFunc("/api/get", s.handleGet)
	s.mux.HandleFunc("/api/delete", s.handleDelete)
	s.mux.HandleFunc("/api/search", s.handleSearch)
	s.mux.HandleFunc("/api/sql", s.handleSQL)
	s.mux.HandleFunc("/api/entries", s.handleEntries)
	s.mux.HandleFunc("/api/tree", s.handleTree)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	s.mux.HandleFunc("/api/check", s.handleCheck)
	s.mux.HandleFunc("/api/reset", s.handleReset)
	return s
}

// Handler exposes the routes for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Serve blocks until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.log.Info("http listening", "addr", l.Addr().String())
	if err := s.http.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Start(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var p common.Property
	if err := decodeBody(r, &p); err != nil {
		s.fail(w, fmt.Errorf("%w: %v", common.ErrInvalidRecord, err))
		return
	}
	key, err := s.store.Put(&p)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, common.Entry{Key: key, Property: &p})
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Key      *float64         `json:"key"`
		Property *common.Property `json:"property"`
	}
	if err := decodeBody(r, &req); err != nil || req.Key == nil {
		s.fail(w, fmt.Errorf("%w: body must carry key and property", common.ErrInvalidRecord))
		return
	}
	if err := s.store.Insert(*req.Key, req.Property); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, common.Entry{Key: *req.Key, Property: req.Property})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	key, ok := s.key(w, r)
	if !ok {
		return
	}

	start := time.Now()
	p, err := s.store.Get(key)
	duration := time.Since(start)
	if err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"key":        key,
		"property":   p,
		"latency_ns": duration.Nanoseconds(),
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodDelete, http.MethodPost) {
		return
	}
	key, ok := s.key(w, r)
	if !ok {
		return
	}
	if !s.store.Delete(key) {
		s.fail(w, fmt.Errorf("%w: %v", common.ErrNotFound, key))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"key": key, "deleted": true})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	c := common.NewCriteria()
	if err := decodeBody(r, &c); err != nil && !errors.Is(err, io.EOF) {
		s.fail(w, fmt.Errorf("%w: %v", common.ErrMalformedCriteria, err))
		return
	}
	records, err := s.store.Search(c)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results(records))
}

func (s *Server) handleSQL(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Query string `json:"query"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, fmt.Errorf("%w: %v", common.ErrMalformedCriteria, err))
		return
	}
	q, err := sql.Parse(req.Query)
	if err != nil {
		if errors.Is(err, sql.ErrSyntax) {
			err = fmt.Errorf("%w: %v", common.ErrMalformedCriteria, err)
		}
		s.fail(w, err)
		return
	}
	records, err := s.store.Search(q.Criteria)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results(q.Apply(records)))
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.store.Entries())
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	out, err := s.store.Tree()
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, out)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.store.Stats())
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	if err := s.store.Check(); err != nil {
		s.log.Error("index check failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "records": s.store.Len()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	if err := s.store.Reset(); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reset": true})
}

func (s *Server) key(w http.ResponseWriter, r *http.Request) (common.KeyType, bool) {
	raw := r.URL.Query().Get("key")
	key, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(key) || math.IsInf(key, 0) {
		http.Error(w, "Invalid key", http.StatusBadRequest)
		return 0, false
	}
	return key, true
}

// fail maps sentinel errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrInvalidRecord), errors.Is(err, common.ErrMalformedCriteria):
		status = http.StatusBadRequest
	default:
		s.log.Error("request failed", "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func allow(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
}

func results(records []*common.Property) map[string]interface{} {
	if records == nil {
		records = []*common.Property{}
	}
	return map[string]interface{}{"count": len(records), "results": records}
}

// writeJSON encodes before committing status; encode failures are a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, "encode response: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
