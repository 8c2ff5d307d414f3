package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dreamware/statekv/internal/store"
)

// server exposes a store.Store over statekvd's HTTP API. One server
// instance backs every namespace that points at it; namespace scoping
// lives entirely in the keys the accessors write.
type server struct {
	store store.Store
	log   zerolog.Logger
}

func newServer(s store.Store, log zerolog.Logger) *server {
	return &server{store: s, log: log}
}

// routes wires up the HTTP API:
//
//	GET    /health                  liveness probe
//	GET    /v1/kv?key=K             read one value
//	PUT    /v1/kv?key=K[&ttl=10s]   write one value, optionally expiring
//	DELETE /v1/kv?key=K             delete one value
//	GET    /v1/keys?pattern=G       enumerate keys by glob
//	POST   /v1/batch                atomic multi-write
//	POST   /v1/setnx                set-if-absent (lock acquire)
//	POST   /v1/cad                  compare-and-delete (lock release)
//
// Keys travel as query parameters because fully-qualified keys contain
// slashes.
func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/kv", s.handleKV)
	mux.HandleFunc("/v1/keys", s.handleKeys)
	mux.HandleFunc("/v1/batch", s.handleBatch)
	mux.HandleFunc("/v1/setnx", s.handleSetNX)
	mux.HandleFunc("/v1/cad", s.handleCompareAndDelete)
	return mux
}

func (s *server) handleKV(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "missing key parameter", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGet(w, r, key)
	case http.MethodPut:
		s.handlePut(w, r, key)
	case http.MethodDelete:
		s.handleDelete(w, r, key)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request, key string) {
	value, err := s.store.Get(r.Context(), key)
	if errors.Is(err, store.ErrKeyNotFound) {
		http.Error(w, "key not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := w.Write(value); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("error writing response")
	}
}

func (s *server) handlePut(w http.ResponseWriter, r *http.Request, key string) {
	var ttl time.Duration
	if raw := r.URL.Query().Get("ttl"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			http.Error(w, "invalid ttl", http.StatusBadRequest)
			return
		}
		ttl = parsed
	}

	value, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if err := s.store.Set(r.Context(), key, value, ttl); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request, key string) {
	if err := s.store.Delete(r.Context(), key); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleKeys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		pattern = "*"
	}

	keys, err := s.store.Keys(r.Context(), pattern)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, store.KeysResponse{Keys: keys, Count: len(keys)})
}

// handleBatch applies every write in the request as one unit against the
// store, which makes the batch atomic with respect to all other requests.
func (s *server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req store.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid batch body", http.StatusBadRequest)
		return
	}

	writes := make([]store.Write, len(req.Writes))
	for i, bw := range req.Writes {
		ttl, err := store.ParseTTL(bw.TTL)
		if err != nil {
			http.Error(w, "invalid ttl in batch", http.StatusBadRequest)
			return
		}
		writes[i] = store.Write{Key: bw.Key, Value: bw.Value, TTL: ttl}
	}

	if err := s.store.Batch(r.Context(), writes); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.log.Debug().Int("writes", len(writes)).Msg("batch applied")
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleSetNX(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req store.SetNXRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		http.Error(w, "invalid setnx body", http.StatusBadRequest)
		return
	}
	ttl, err := store.ParseTTL(req.TTL)
	if err != nil {
		http.Error(w, "invalid ttl", http.StatusBadRequest)
		return
	}

	acquired, err := s.store.SetNX(r.Context(), req.Key, req.Value, ttl)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, store.SetNXResponse{Acquired: acquired})
}

func (s *server) handleCompareAndDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req store.CompareAndDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		http.Error(w, "invalid cad body", http.StatusBadRequest)
		return
	}

	deleted, err := s.store.CompareAndDelete(r.Context(), req.Key, req.Value)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, store.CompareAndDeleteResponse{Deleted: deleted})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
