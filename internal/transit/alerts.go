package transit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/randytsao24/ctaglass/internal/cache"
	"github.com/randytsao24/ctaglass/internal/logging"
	"github.com/randytsao24/ctaglass/internal/models"
)

const alertsCacheKey = "all"

// StationResolver maps alert references onto known stations
type StationResolver interface {
	ByMapID(mapID string) (models.Station, bool)
	ByName(name string) (models.Station, bool)
}

// ServiceAlert represents an active service alert
type ServiceAlert struct {
	ID          string   `json:"id"`
	Routes      []string `json:"routes"`
	Stations    []string `json:"stations,omitempty"`
	Header      string   `json:"header"`
	Description string   `json:"description,omitempty"`
}

// SpokenSummary is the alert header
func (a ServiceAlert) SpokenSummary() string {
	return a.Header
}

// AlertService fetches and caches a GTFS-realtime service alerts feed
type AlertService struct {
	feedURL  string
	client   *http.Client
	cache    *cache.Cache[[]ServiceAlert]
	stations StationResolver
	logger   *slog.Logger
	now      func() time.Time
}

// NewAlertService creates a new alert service. An empty feedURL disables it.
func NewAlertService(feedURL string, stations StationResolver, timeout, cacheTTL time.Duration, logger *slog.Logger) *AlertService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertService{
		feedURL:  feedURL,
		client:   &http.Client{Timeout: timeout},
		cache:    cache.New[[]ServiceAlert](cacheTTL),
		stations: stations,
		logger:   logger.With(slog.String("component", "alerts")),
		now:      time.Now,
	}
}

// Enabled reports whether a feed URL is configured
func (s *AlertService) Enabled() bool {
	return s.feedURL != ""
}

// Close stops the cache sweep
func (s *AlertService) Close() {
	s.cache.Close()
}

// GetAlerts returns active service alerts, optionally filtered by route.
// Route names match case-insensitively.
func (s *AlertService) GetAlerts(ctx context.Context, routes []string) ([]ServiceAlert, error) {
	allAlerts, err := s.cache.GetOrLoad(alertsCacheKey, func() ([]ServiceAlert, error) {
		return s.fetchAlerts(ctx)
	})
	if err != nil {
		return nil, err
	}

	if len(routes) == 0 {
		return allAlerts, nil
	}

	routeSet := make(map[string]bool, len(routes))
	for _, r := range routes {
		routeSet[strings.ToLower(r)] = true
	}

	filtered := []ServiceAlert{}
	for _, alert := range allAlerts {
		for _, r := range alert.Routes {
			if routeSet[strings.ToLower(r)] {
				filtered = append(filtered, alert)
				break
			}
		}
	}
	return filtered, nil
}

func (s *AlertService) fetchAlerts(ctx context.Context) ([]ServiceAlert, error) {
	const op = "fetch alerts"

	if s.feedURL == "" {
		return nil, missingCredential(op, "GTFS_ALERTS_URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feedURL, nil)
	if err != nil {
		return nil, invalidRequest(op, "could not build request: %v", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, transportError(op, err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, s.logger, op)

	if resp.StatusCode != http.StatusOK {
		return nil, transportError(op, fmt.Errorf("alerts feed returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(op, fmt.Errorf("reading alerts response: %w", err))
	}

	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		return nil, decodingError(op, err)
	}

	return s.parseAlerts(feed), nil
}

func (s *AlertService) parseAlerts(feed *gtfs.FeedMessage) []ServiceAlert {
	alerts := []ServiceAlert{}
	now := s.now().Unix()

	for _, entity := range feed.GetEntity() {
		alert := entity.GetAlert()
		if alert == nil {
			continue
		}

		active := len(alert.GetActivePeriod()) == 0
		for _, period := range alert.GetActivePeriod() {
			start := int64(period.GetStart())
			end := int64(period.GetEnd())
			if now >= start && (end == 0 || now < end) {
				active = true
				break
			}
		}
		if !active {
			continue
		}

		header := translatedText(alert.GetHeaderText())
		if header == "" {
			continue
		}

		var routes []string
		var stopIDs []string
		seen := make(map[string]bool)
		for _, ie := range alert.GetInformedEntity() {
			if routeID := ie.GetRouteId(); routeID != "" && !seen["r:"+routeID] {
				seen["r:"+routeID] = true
				routes = append(routes, routeID)
			}
			if stopID := ie.GetStopId(); stopID != "" && !seen["s:"+stopID] {
				seen["s:"+stopID] = true
				stopIDs = append(stopIDs, stopID)
			}
		}

		alerts = append(alerts, ServiceAlert{
			ID:          entity.GetId(),
			Routes:      routes,
			Stations:    s.resolveStations(stopIDs, header),
			Header:      header,
			Description: translatedText(alert.GetDescriptionText()),
		})
	}

	return alerts
}

// resolveStations prefers informed stop ids and falls back to a name match
// on the header text
func (s *AlertService) resolveStations(stopIDs []string, header string) []string {
	if s.stations == nil {
		return nil
	}

	var names []string
	for _, id := range stopIDs {
		if st, ok := s.stations.ByMapID(id); ok {
			names = append(names, st.Name)
		}
	}
	if len(names) > 0 {
		return names
	}

	if st, ok := s.stations.ByName(header); ok {
		return []string{st.Name}
	}
	return nil
}

func translatedText(ts *gtfs.TranslatedString) string {
	if ts == nil {
		return ""
	}
	for _, t := range ts.GetTranslation() {
		if t.GetLanguage() == "en" || t.GetLanguage() == "" {
			return t.GetText()
		}
	}
	if len(ts.GetTranslation()) > 0 {
		return ts.GetTranslation()[0].GetText()
	}
	return ""
}
