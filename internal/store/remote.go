package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Wire types shared between RemoteStore and the statekvd handlers.
// Values are []byte so encoding/json carries them as base64. TTLs travel
// as time.Duration strings ("10s", "2m") and are absent for persistent
// writes.

// BatchWrite is one entry of a batch request.
type BatchWrite struct {
	Key   string `json:"key"`
	Value []byte `json:"value"`
	TTL   string `json:"ttl,omitempty"`
}

// BatchRequest is the body of POST /v1/batch.
type BatchRequest struct {
	Writes []BatchWrite `json:"writes"`
}

// KeysResponse is the body returned by GET /v1/keys.
type KeysResponse struct {
	Keys  []string `json:"keys"`
	Count int      `json:"count"`
}

// SetNXRequest is the body of POST /v1/setnx.
type SetNXRequest struct {
	Key   string `json:"key"`
	Value []byte `json:"value"`
	TTL   string `json:"ttl,omitempty"`
}

// SetNXResponse reports whether a SetNX write happened.
type SetNXResponse struct {
	Acquired bool `json:"acquired"`
}

// CompareAndDeleteRequest is the body of POST /v1/cad.
type CompareAndDeleteRequest struct {
	Key   string `json:"key"`
	Value []byte `json:"value"`
}

// CompareAndDeleteResponse reports whether a delete happened.
type CompareAndDeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// RemoteStore implements Store against a statekvd server over HTTP.
//
// Transport failures wrap ErrUnavailable; a 404 on Get maps to
// ErrKeyNotFound. The server applies batches atomically, so RemoteStore
// inherits the all-or-nothing Batch contract.
type RemoteStore struct {
	base   string
	client *http.Client
}

// NewRemoteStore creates a store client for the server at base
// (e.g. "http://127.0.0.1:7400").
func NewRemoteStore(base string) *RemoteStore {
	return &RemoteStore{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Get retrieves a value by key.
func (r *RemoteStore) Get(ctx context.Context, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.kvURL(key), nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(resp.Body)
	case http.StatusNotFound:
		return nil, ErrKeyNotFound
	default:
		return nil, statusError("get", resp)
	}
}

// Set stores a value, expiring if ttl is positive.
func (r *RemoteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	u := r.kvURL(key)
	if ttl > 0 {
		u += "&ttl=" + url.QueryEscape(ttl.String())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(value))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return statusError("set", resp)
	}
	return nil
}

// Delete removes a key.
func (r *RemoteStore) Delete(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.kvURL(key), nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return statusError("delete", resp)
	}
	return nil
}

// Keys returns all keys matching pattern.
func (r *RemoteStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	var out KeysResponse
	u := r.base + "/v1/keys?pattern=" + url.QueryEscape(pattern)
	if err := r.getJSON(ctx, u, &out); err != nil {
		return nil, err
	}
	return out.Keys, nil
}

// Batch applies all writes as one atomic unit on the server.
func (r *RemoteStore) Batch(ctx context.Context, writes []Write) error {
	body := BatchRequest{Writes: make([]BatchWrite, len(writes))}
	for i, w := range writes {
		body.Writes[i] = BatchWrite{Key: w.Key, Value: w.Value, TTL: ttlString(w.TTL)}
	}
	return r.postJSON(ctx, r.base+"/v1/batch", body, nil)
}

// SetNX stores the value only if the key is absent on the server.
func (r *RemoteStore) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	var out SetNXResponse
	body := SetNXRequest{Key: key, Value: value, TTL: ttlString(ttl)}
	if err := r.postJSON(ctx, r.base+"/v1/setnx", body, &out); err != nil {
		return false, err
	}
	return out.Acquired, nil
}

// CompareAndDelete removes the key only if its value matches on the server.
func (r *RemoteStore) CompareAndDelete(ctx context.Context, key string, value []byte) (bool, error) {
	var out CompareAndDeleteResponse
	body := CompareAndDeleteRequest{Key: key, Value: value}
	if err := r.postJSON(ctx, r.base+"/v1/cad", body, &out); err != nil {
		return false, err
	}
	return out.Deleted, nil
}

// kvURL builds the /v1/kv endpoint URL. The key travels as a query
// parameter because fully-qualified keys contain slashes.
func (r *RemoteStore) kvURL(key string) string {
	return r.base + "/v1/kv?key=" + url.QueryEscape(key)
}

func (r *RemoteStore) postJSON(ctx context.Context, u string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError("post", resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (r *RemoteStore) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError("get", resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusError(op string, resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return fmt.Errorf("store: %s: http %d: %s", op, resp.StatusCode, strings.TrimSpace(string(msg)))
}

func ttlString(ttl time.Duration) string {
	if ttl <= 0 {
		return ""
	}
	return ttl.String()
}

// ParseTTL converts a wire TTL string back to a duration. The empty string
// means no expiration.
func ParseTTL(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
