package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/randytsao24/ctaglass/internal/logging"
	"github.com/randytsao24/ctaglass/internal/transit"
	"github.com/randytsao24/ctaglass/internal/wearable"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("error encoding JSON response", slog.String("error", err.Error()))
	}
}

// writeError maps err onto a status code and writes the error envelope
func writeError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.LogError(logging.FromContext(r.Context()), message, err,
			slog.String("path", r.URL.Path))
	}

	body := map[string]any{
		"error":   message,
		"message": err.Error(),
	}
	if kind := transit.KindOf(err); kind != 0 {
		body["kind"] = kind.String()
	}
	writeJSON(w, status, body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, wearable.ErrPairingInProgress):
		return http.StatusConflict
	case errors.Is(err, wearable.ErrClosed):
		return http.StatusServiceUnavailable
	}

	switch transit.KindOf(err) {
	case transit.KindInvalidRequest:
		return http.StatusBadRequest
	case transit.KindMissingCredential:
		return http.StatusServiceUnavailable
	case transit.KindDomain:
		return http.StatusUnprocessableEntity
	case transit.KindTransport, transit.KindDecoding:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func parseIntQueryParam(r *http.Request, name string, defaultVal, min, max int) int {
	str := r.URL.Query().Get(name)
	if str == "" {
		return defaultVal
	}

	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}

	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// parseListQueryParam splits a comma-separated parameter, dropping blanks
func parseListQueryParam(r *http.Request, name string) []string {
	var out []string
	for _, part := range strings.Split(r.URL.Query().Get(name), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
