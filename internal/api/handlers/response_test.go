package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/randytsao24/ctaglass/internal/transit"
	"github.com/randytsao24/ctaglass/internal/wearable"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"pairing busy", wearable.ErrPairingInProgress, http.StatusConflict},
		{"controller stopped", fmt.Errorf("pair: %w", wearable.ErrClosed), http.StatusServiceUnavailable},
		{"invalid", &transit.Error{Kind: transit.KindInvalidRequest}, http.StatusBadRequest},
		{"missing key", &transit.Error{Kind: transit.KindMissingCredential}, http.StatusServiceUnavailable},
		{"domain", &transit.Error{Kind: transit.KindDomain}, http.StatusUnprocessableEntity},
		{"wrapped transport", fmt.Errorf("probe: %w", &transit.Error{Kind: transit.KindTransport}), http.StatusBadGateway},
		{"decoding", &transit.Error{Kind: transit.KindDecoding}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestParseIntQueryParam(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 5},
		{"limit=3", 3},
		{"limit=0", 1},
		{"limit=99", 20},
		{"limit=abc", 5},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/transit/stations/closest?"+tt.query, nil)
			assert.Equal(t, tt.want, parseIntQueryParam(r, "limit", defaultLimit, 1, maxLimit))
		})
	}
}

func TestParseListQueryParam(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/transit/alerts?routes=Red,+Blue,,", nil)
	assert.Equal(t, []string{"Red", "Blue"}, parseListQueryParam(r, "routes"))

	r = httptest.NewRequest(http.MethodGet, "/transit/alerts", nil)
	assert.Nil(t, parseListQueryParam(r, "routes"))
}
