package transit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPredictions(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getpredictions", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "bus-key", q.Get("key"))
		assert.Equal(t, "1836", q.Get("stpid"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "22", q.Get("rt"))

		writeBody(t, w, `{"bustime-response":{"prd":[
			{"rt":"22","rtdir":"Northbound","des":"Howard","prdctdn":"DUE","stpid":"1836","stpnm":"Clark & Lake","vid":"8123"},
			{"rt":"22","des":"Harrison","prdctdn":"0"},
			{"rt":"22","des":"Howard","prdctdn":"7"},
			{"rt":"22","destNm":"Howard","prdctdn":"xyz"},
			{"rt":"","des":"Nowhere","prdctdn":"3"}
		]}}`)
	})

	svc := NewBusService("bus-key", srv.URL, 5*time.Second, discardLogger())
	arrivals, err := svc.FetchPredictions(context.Background(), "1836", "22")
	require.NoError(t, err)
	require.Len(t, arrivals, 4)

	minutes := make([]int, 0, len(arrivals))
	for _, a := range arrivals {
		minutes = append(minutes, a.PredictionMinutes)
	}
	assert.Equal(t, []int{1, 1, 7, 1}, minutes)

	assert.Equal(t, BusArrival{
		Route:             "22",
		Destination:       "Howard",
		Direction:         "Northbound",
		PredictionMinutes: 1,
		StopID:            "1836",
		StopName:          "Clark & Lake",
		VehicleID:         "8123",
	}, arrivals[0])
	assert.Equal(t, "Howard", arrivals[3].Destination)
	assert.Equal(t, "Route 22 to Howard, 7 minutes", arrivals[2].SpokenSummary())
}

func TestFetchPredictionsUnderscoreEnvelope(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("rt"))
		writeBody(t, w, `{"bustime_response":{"prd":{"rt":"36","des":"Broadway","prdctdn":"12"}}}`)
	})

	svc := NewBusService("bus-key", srv.URL, 5*time.Second, discardLogger())
	arrivals, err := svc.FetchPredictions(context.Background(), "1836", "")
	require.NoError(t, err)
	require.Len(t, arrivals, 1)
	assert.Equal(t, 12, arrivals[0].PredictionMinutes)
}

func TestFetchPredictionsServiceError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(t, w, `{"bustime-response":{"error":[{"msg":"No service scheduled"},{"msg":"ignored"}],
			"prd":[{"rt":"22","des":"Howard","prdctdn":"3"}]}}`)
	})

	svc := NewBusService("bus-key", srv.URL, 5*time.Second, discardLogger())
	_, err := svc.FetchPredictions(context.Background(), "1836", "22")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDomain)
	assert.Equal(t, KindDomain, KindOf(err))
	assert.Contains(t, err.Error(), "No service scheduled")
}

func TestFetchPredictionsEmptyBody(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(t, w, `{}`)
	})

	svc := NewBusService("bus-key", srv.URL, 5*time.Second, discardLogger())
	arrivals, err := svc.FetchPredictions(context.Background(), "1836", "")
	require.NoError(t, err)
	assert.Empty(t, arrivals)
}

func TestFetchPredictionsRequiresKey(t *testing.T) {
	svc := NewBusService("", "", time.Second, nil)
	assert.False(t, svc.HasAPIKey())

	_, err := svc.FetchPredictions(context.Background(), "1836", "22")
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Contains(t, err.Error(), "CTA_BUS_API_KEY")
}

func TestFetchPredictionsRejectsStopID(t *testing.T) {
	svc := NewBusService("bus-key", "", time.Second, nil)
	_, err := svc.FetchPredictions(context.Background(), "18a6", "")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestBusMinutes(t *testing.T) {
	tests := map[string]int{
		"DUE": 1,
		"due": 1,
		"0":   1,
		"":    1,
		"xyz": 1,
		"-4":  1,
		"7":   7,
		" 15": 15,
	}
	for in, want := range tests {
		assert.Equal(t, want, busMinutes(in), "countdown %q", in)
	}
}
