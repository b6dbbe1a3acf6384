package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/eugenenazirov/nextimage-env/internal/bucket"
	"github.com/eugenenazirov/nextimage-env/internal/env"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Prober checks the source bucket named by the environment record.
type Prober interface {
	Probe(ctx context.Context, rec env.Record) (bucket.Result, error)
}

// Handler serves the environment record and bucket probe over HTTP.
type Handler struct {
	record env.Record
	prober Prober

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies. A nil
// prober disables the probe endpoint.
func NewHandler(rec env.Record, prober Prober, opts ...HandlerOption) *Handler {
	h := &Handler{
		record: rec,
		prober: prober,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetEnv(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := envResponse{
		Values:         h.record.Snapshot(),
		Missing:        keyNames(h.record.Missing()),
		UseLocalBucket: h.record.UseLocalBucket(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetEnvKey(w http.ResponseWriter, r *http.Request) {
	key, err := env.ParseKey(r.PathValue("key"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Unknown variable", err.Error())
		return
	}

	value, ok := h.record.Get(key)
	if !ok {
		writeJSON(w, http.StatusNotFound, envKeyResponse{Key: key.String(), Present: false})
		return
	}
	writeJSON(w, http.StatusOK, envKeyResponse{Key: key.String(), Present: true, Value: &value})
}

func (h *Handler) handleProbe(w http.ResponseWriter, r *http.Request) {
	if h.prober == nil {
		writeError(w, http.StatusNotImplemented, "Probe unavailable", "no bucket prober configured")
		return
	}

	result, err := h.prober.Probe(r.Context(), h.record)
	if err != nil {
		if errors.Is(err, bucket.ErrNoSourceBucket) {
			writeError(w, http.StatusConflict, "Source bucket not configured", err.Error(),
				"set "+env.SourceBucket.String()+" before probing")
			return
		}
		writeInternalError(w, err)
		return
	}

	status := http.StatusOK
	if !result.Reachable {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, result)
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func keyNames(keys []env.Key) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.String())
	}
	return out
}

type envResponse struct {
	Values         env.Snapshot `json:"values"`
	Missing        []string     `json:"missing"`
	UseLocalBucket bool         `json:"useLocalBucket"`
}

type envKeyResponse struct {
	Key     string  `json:"key"`
	Present bool    `json:"present"`
	Value   *string `json:"value,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
