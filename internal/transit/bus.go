package transit

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBusBaseURL is the CTA Bus Tracker v2 API root
	DefaultBusBaseURL = "https://www.ctabustracker.com/bustime/api/v2"

	predictionsPath = "getpredictions"
)

// BusArrival represents an upcoming bus at a stop
type BusArrival struct {
	Route             string `json:"route"`
	Destination       string `json:"destination"`
	Direction         string `json:"direction,omitempty"`
	PredictionMinutes int    `json:"prediction_minutes"`
	StopID            string `json:"stop_id,omitempty"`
	StopName          string `json:"stop_name,omitempty"`
	VehicleID         string `json:"vehicle_id,omitempty"`
}

// SpokenSummary renders "Route 22 to Howard, 3 minutes"
func (b BusArrival) SpokenSummary() string {
	return "Route " + b.Route + " to " + b.Destination + ", " + pluralMinutes(b.PredictionMinutes)
}

// BusService fetches real-time bus predictions from the CTA Bus Tracker API
type BusService struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewBusService creates a new bus service
func NewBusService(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger) *BusService {
	if baseURL == "" {
		baseURL = DefaultBusBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BusService{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With(slog.String("component", "bus_tracker")),
	}
}

// HasAPIKey returns true if the service has an API key configured
func (s *BusService) HasAPIKey() bool {
	return s.apiKey != ""
}

// FetchPredictions returns predicted arrivals at a stop, optionally limited
// to one route. An error message embedded in the response is returned as a
// domain error.
func (s *BusService) FetchPredictions(ctx context.Context, stopID, route string) ([]BusArrival, error) {
	const op = "fetch bus predictions"

	if s.apiKey == "" {
		return nil, missingCredential(op, "CTA_BUS_API_KEY")
	}
	stopID = strings.TrimSpace(stopID)
	if !isDigits(stopID) {
		return nil, invalidRequest(op, "stop id %q is not numeric", stopID)
	}

	params := url.Values{}
	params.Set("key", s.apiKey)
	params.Set("stpid", stopID)
	params.Set("format", "json")
	if route = strings.TrimSpace(route); route != "" {
		params.Set("rt", route)
	}

	var result busResponse
	if err := getJSON(ctx, s.client, s.logger, op, s.baseURL, predictionsPath, params, &result); err != nil {
		return nil, err
	}

	body := result.body()
	if body == nil {
		return []BusArrival{}, nil
	}
	for _, e := range body.Error {
		if msg := e.Message.String(); msg != "" {
			return nil, domainError(op, "", msg)
		}
	}

	return parsePredictions(body.Predictions), nil
}

func parsePredictions(prds []busPrediction) []BusArrival {
	arrivals := make([]BusArrival, 0, len(prds))
	for _, p := range prds {
		route := p.Route.String()
		destination := p.Destination.String()
		if destination == "" {
			destination = p.DestinationName.String()
		}
		if route == "" || destination == "" {
			continue
		}

		arrivals = append(arrivals, BusArrival{
			Route:             route,
			Destination:       destination,
			Direction:         p.RouteDirection.String(),
			PredictionMinutes: busMinutes(p.Countdown.String()),
			StopID:            p.StopID.String(),
			StopName:          p.StopName.String(),
			VehicleID:         p.VehicleID.String(),
		})
	}
	return arrivals
}

// busMinutes maps the textual countdown: "DUE", "0", blank and garbage all
// mean 1 minute, any other number is floored at 1
func busMinutes(countdown string) int {
	countdown = strings.TrimSpace(countdown)
	if countdown == "" || strings.EqualFold(countdown, "DUE") || countdown == "0" {
		return 1
	}
	n, err := strconv.Atoi(countdown)
	if err != nil {
		return 1
	}
	return max(1, n)
}

// API response structures
type busResponse struct {
	BustimeResponse *bustimeResponse `json:"bustime-response"`
	// Some proxies re-key the envelope with an underscore
	BustimeResponseAlt *bustimeResponse `json:"bustime_response"`
}

func (r busResponse) body() *bustimeResponse {
	if r.BustimeResponse != nil {
		return r.BustimeResponse
	}
	return r.BustimeResponseAlt
}

type bustimeResponse struct {
	Predictions flexList[busPrediction] `json:"prd"`
	Error       flexList[struct {
		Message flexString `json:"msg"`
	}] `json:"error"`
}

type busPrediction struct {
	Route           flexString `json:"rt"`
	RouteDirection  flexString `json:"rtdir"`
	Destination     flexString `json:"des"`
	DestinationName flexString `json:"destNm"`
	Countdown       flexString `json:"prdctdn"`
	StopID          flexString `json:"stpid"`
	StopName        flexString `json:"stpnm"`
	VehicleID       flexString `json:"vid"`
}
