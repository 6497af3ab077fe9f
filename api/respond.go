package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/garnizeh/crm/pkg/crmerr"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string, details ...string) {
	writeJSON(w, errorResponse{Error: msg, Details: details}, status)
}

// writeStoreError maps a repository or model error to a status code.
func writeStoreError(w http.ResponseWriter, op string, err error) {
	switch crmerr.KindOf(err) {
	case crmerr.KindValidation, crmerr.KindInvalidEnum:
		writeError(w, http.StatusBadRequest, crmerr.Notice(err))
		return
	case crmerr.KindNotFound:
		writeError(w, http.StatusNotFound, crmerr.Notice(err))
		return
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		writeError(w, http.StatusConflict, op+": already exists")
	case strings.Contains(msg, "CHECK constraint failed"), strings.Contains(msg, "FOREIGN KEY constraint failed"):
		writeError(w, http.StatusBadRequest, op+": constraint violated")
	default:
		logger.Error(op, slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, op+" failed")
	}
}

// pathID parses the named mux variable as a positive id.
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// withID resolves the named path id or answers 400.
func withID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := pathID(r, name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return id, true
}

var errBodyInvalid = errors.New("invalid request body")

// decodeBody reads the JSON body, validates it against the named schema and
// unmarshals it into dst. It answers 400 itself and reports false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, schema string, dst any) bool {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, errBodyInvalid.Error())
		return false
	}
	if !json.Valid(b) {
		writeError(w, http.StatusBadRequest, errBodyInvalid.Error())
		return false
	}
	if details, err := validateBody(r.Context(), schema, b); err != nil {
		logger.Error("schema validation", slog.String("schema", schema), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "validation unavailable")
		return false
	} else if len(details) > 0 {
		writeError(w, http.StatusBadRequest, "request does not match schema", details...)
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		writeError(w, http.StatusBadRequest, errBodyInvalid.Error())
		return false
	}
	return true
}

// emptyIfNil keeps list endpoints answering [] instead of null.
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
