package transit

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultTrainBaseURL is the CTA Train Tracker API root
	DefaultTrainBaseURL = "https://lapi.transitchicago.com/api/1.0"

	arrivalsPath = "ttarrivals.aspx"
	followPath   = "ttfollow.aspx"
)

// DefaultProbeStations are busy stations queried to discover runs in
// service: Clark/Lake, Jackson and O'Hare.
var DefaultProbeStations = []string{"40170", "41820", "40570"}

// Arrival represents an upcoming train at a station
type Arrival struct {
	Route             string `json:"route"`
	Destination       string `json:"destination"`
	PredictionMinutes int    `json:"prediction_minutes"`
	RunNumber         string `json:"run_number,omitempty"`
}

// SpokenSummary renders "Blue Line to O'Hare, 5 minutes"
func (a Arrival) SpokenSummary() string {
	return a.Route + " Line to " + a.Destination + ", " + pluralMinutes(a.PredictionMinutes)
}

// FollowStop is one upcoming stop of a tracked run, in service order
type FollowStop struct {
	StopID      string     `json:"stop_id"`
	StopName    string     `json:"stop_name"`
	ArrivalTime *time.Time `json:"arrival_time,omitempty"`
}

// SpokenSummary renders "Clark/Lake at 3:04 PM", or just the stop name
// when no time was published
func (s FollowStop) SpokenSummary() string {
	if s.ArrivalTime == nil {
		return s.StopName
	}
	return s.StopName + " at " + s.ArrivalTime.In(chicago).Format("3:04 PM")
}

// ActiveRun is a run number seen in service and the route it was seen on
type ActiveRun struct {
	RunNumber string `json:"run"`
	Route     string `json:"route"`
}

// TrainService fetches arrivals and run itineraries from the CTA Train Tracker API
type TrainService struct {
	apiKey        string
	baseURL       string
	probeStations []string
	client        *http.Client
	logger        *slog.Logger
}

// NewTrainService creates a new train service. An empty baseURL selects the
// production endpoint and an empty probe list selects DefaultProbeStations.
func NewTrainService(apiKey, baseURL string, probeStations []string, timeout time.Duration, logger *slog.Logger) *TrainService {
	if baseURL == "" {
		baseURL = DefaultTrainBaseURL
	}
	if len(probeStations) == 0 {
		probeStations = DefaultProbeStations
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TrainService{
		apiKey:        apiKey,
		baseURL:       baseURL,
		probeStations: append([]string(nil), probeStations...),
		client:        &http.Client{Timeout: timeout},
		logger:        logger.With(slog.String("component", "train_tracker")),
	}
}

// HasAPIKey returns true if the service has an API key configured
func (s *TrainService) HasAPIKey() bool {
	return s.apiKey != ""
}

// FetchArrivals returns predicted arrivals at a station. Records missing a
// route or destination are dropped.
func (s *TrainService) FetchArrivals(ctx context.Context, mapID string) ([]Arrival, error) {
	const op = "fetch arrivals"

	if s.apiKey == "" {
		return nil, missingCredential(op, "CTA_TRAIN_API_KEY")
	}
	mapID = strings.TrimSpace(mapID)
	if !isDigits(mapID) {
		return nil, invalidRequest(op, "station map id %q is not numeric", mapID)
	}

	params := url.Values{}
	params.Set("key", s.apiKey)
	params.Set("mapid", mapID)
	params.Set("outputType", "JSON")

	var result arrivalsResponse
	if err := getJSON(ctx, s.client, s.logger, op, s.baseURL, arrivalsPath, params, &result); err != nil {
		return nil, err
	}
	if result.CTATT == nil {
		return nil, decodingError(op, errMissingEnvelope)
	}
	if code := result.CTATT.ErrorCode.String(); code != "" && code != "0" {
		s.logger.Warn("arrivals reported a service error",
			slog.String("map_id", mapID),
			slog.String("code", code),
			slog.String("message", result.CTATT.ErrorName.String()))
	}

	return parseArrivals(result.CTATT.ETA), nil
}

func parseArrivals(etas []arrivalETA) []Arrival {
	arrivals := make([]Arrival, 0, len(etas))
	for _, eta := range etas {
		route := eta.Route.String()
		destination := eta.DestinationName.String()
		if route == "" || destination == "" {
			continue
		}

		arrivals = append(arrivals, Arrival{
			Route:             route,
			Destination:       destination,
			PredictionMinutes: predictionMinutes(eta.Countdown.String(), eta.ArrivalTime.String(), eta.PredictionTime.String()),
			RunNumber:         eta.RunNumber.String(),
		})
	}
	return arrivals
}

// predictionMinutes prefers an explicit countdown, then the gap between the
// arrival and prediction timestamps, then 1. Anything below 1 becomes 1.
func predictionMinutes(countdown, arrivalTime, predictionTime string) int {
	minutes := 1

	if n, err := strconv.Atoi(countdown); err == nil {
		minutes = n
	} else if arr, ok := parseTimestamp(arrivalTime); ok {
		if prd, ok := parseTimestamp(predictionTime); ok {
			minutes = max(0, int(arr.Sub(prd).Minutes()))
		}
	}

	if minutes < 1 {
		return 1
	}
	return minutes
}

// FetchFollowThisTrain returns the upcoming stops of a run in the order the
// service lists them
func (s *TrainService) FetchFollowThisTrain(ctx context.Context, runNumber string) ([]FollowStop, error) {
	const op = "follow train"

	if s.apiKey == "" {
		return nil, missingCredential(op, "CTA_TRAIN_API_KEY")
	}
	runNumber = strings.TrimSpace(runNumber)
	if runNumber == "" || strings.ContainsAny(runNumber, " \t\r\n/?#&") {
		return nil, invalidRequest(op, "run number %q cannot be used in a request", runNumber)
	}

	params := url.Values{}
	params.Set("key", s.apiKey)
	params.Set("runnumber", runNumber)
	params.Set("outputType", "JSON")

	var result followResponse
	if err := getJSON(ctx, s.client, s.logger, op, s.baseURL, followPath, params, &result); err != nil {
		return nil, err
	}
	if result.CTATT == nil {
		return []FollowStop{}, nil
	}

	code := result.CTATT.ErrorCode.String()
	message := result.CTATT.ErrorName.String()
	if code != "" && code != "0" && message != "" {
		return nil, domainError(op, code, message)
	}

	return parseFollowStops(result.CTATT), nil
}

func parseFollowStops(att *followATT) []FollowStop {
	stops := []FollowStop{}

	if att.ETA != nil {
		for _, eta := range *att.ETA {
			if stop, ok := newFollowStop(eta.StationID, eta.StationName, eta.ArrivalTime); ok {
				stops = append(stops, stop)
			}
		}
		return stops
	}

	for _, route := range att.Route {
		for _, train := range route.Train {
			if stop, ok := newFollowStop(train.NextStationID, train.NextStationName, train.ArrivalTime); ok {
				stops = append(stops, stop)
			}
		}
	}
	return stops
}

func newFollowStop(id, name, arrival flexString) (FollowStop, bool) {
	stop := FollowStop{StopID: id.String(), StopName: name.String()}
	if stop.StopID == "" || stop.StopName == "" {
		return FollowStop{}, false
	}
	if t, ok := parseTimestamp(arrival.String()); ok {
		stop.ArrivalTime = &t
	}
	return stop, true
}

// FetchActiveRunNumbers probes busy stations and collects the run numbers
// seen there, first-seen route wins. A failing station is skipped.
func (s *TrainService) FetchActiveRunNumbers(ctx context.Context) ([]ActiveRun, error) {
	results := make([][]Arrival, len(s.probeStations))

	var wg sync.WaitGroup
	for i, mapID := range s.probeStations {
		wg.Add(1)
		go func() {
			defer wg.Done()
			arrivals, err := s.FetchArrivals(ctx, mapID)
			if err != nil {
				s.logger.Warn("probe station failed",
					slog.String("map_id", mapID),
					slog.String("error", err.Error()))
				return
			}
			results[i] = arrivals
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return mergeActiveRuns(results), nil
}

// mergeActiveRuns dedupes by run number in probe order
func mergeActiveRuns(perStation [][]Arrival) []ActiveRun {
	seen := make(map[string]bool)
	runs := []ActiveRun{}

	for _, arrivals := range perStation {
		for _, a := range arrivals {
			if a.RunNumber == "" || seen[a.RunNumber] {
				continue
			}
			seen[a.RunNumber] = true
			runs = append(runs, ActiveRun{RunNumber: a.RunNumber, Route: a.Route})
		}
	}
	return runs
}

var errMissingEnvelope = errors.New(`response has no "ctatt" object`)

// API response structures
type arrivalsResponse struct {
	CTATT *struct {
		ErrorCode flexString           `json:"errCd"`
		ErrorName flexString           `json:"errNm"`
		ETA       flexList[arrivalETA] `json:"eta"`
	} `json:"ctatt"`
}

type arrivalETA struct {
	StationID       flexString `json:"staId"`
	StationName     flexString `json:"staNm"`
	Route           flexString `json:"rt"`
	DestinationName flexString `json:"destNm"`
	RunNumber       flexString `json:"rn"`
	PredictionTime  flexString `json:"prdt"`
	ArrivalTime     flexString `json:"arrT"`
	Countdown       flexString `json:"prdctdn"`
}

type followResponse struct {
	CTATT *followATT `json:"ctatt"`
}

// followATT covers both published shapes: a flat eta list, and the older
// route[].train[] nesting
type followATT struct {
	ErrorCode flexString          `json:"errCd"`
	ErrorName flexString          `json:"errNm"`
	ETA       *flexList[followETA] `json:"eta"`
	Route     flexList[struct {
		Train flexList[followTrain] `json:"train"`
	}] `json:"route"`
}

type followETA struct {
	StationID   flexString `json:"staId"`
	StationName flexString `json:"staNm"`
	ArrivalTime flexString `json:"arrT"`
}

type followTrain struct {
	NextStationID   flexString `json:"nextStaId"`
	NextStationName flexString `json:"nextStaNm"`
	ArrivalTime     flexString `json:"arrT"`
}
