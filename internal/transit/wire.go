package transit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/randytsao24/ctaglass/internal/logging"
)

// CTA feeds publish times in Chicago local time without an offset
var chicago = loadChicago()

func loadChicago() *time.Location {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		return time.FixedZone("CST", -6*60*60)
	}
	return loc
}

// Chicago returns the time zone used for CTA timestamps and spoken times
func Chicago() *time.Location {
	return chicago
}

var localLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"20060102 15:04:05",
	"20060102 15:04",
}

// parseTimestamp accepts RFC 3339 (with or without fractional seconds) and
// the offset-less layouts the Train and Bus Tracker APIs emit
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, chicago); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// flexString decodes a JSON string, number or boolean as text. Anything
// else (null, objects, arrays) decodes to "" instead of failing the record.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*f = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*f = ""
			return nil
		}
		*f = flexString(s)
	case 't', 'f':
		*f = flexString(data)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*f = flexString(data)
	default:
		*f = ""
	}
	return nil
}

func (f flexString) String() string {
	return strings.TrimSpace(string(f))
}

// flexList decodes either a JSON array or a lone object (the CTA feeds
// collapse one-element arrays). Elements that do not decode are skipped.
type flexList[T any] []T

func (l *flexList[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	var raws []json.RawMessage
	if data[0] == '[' {
		if err := json.Unmarshal(data, &raws); err != nil {
			return err
		}
	} else {
		raws = []json.RawMessage{data}
	}

	items := make(flexList[T], 0, len(raws))
	for _, raw := range raws {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	*l = items
	return nil
}

// getJSON performs one GET round trip and decodes the body into out. It
// never retries.
func getJSON(ctx context.Context, client *http.Client, logger *slog.Logger, op, baseURL, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(strings.TrimRight(baseURL, "/") + "/" + path)
	if err != nil {
		return invalidRequest(op, "could not build request URL: %v", err)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return invalidRequest(op, "could not build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return transportError(op, err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, logger, op)

	if resp.StatusCode != http.StatusOK {
		return transportError(op, fmt.Errorf("service returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(op, fmt.Errorf("reading response: %w", err))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return decodingError(op, err)
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

func pluralMinutes(n int) string {
	if n == 1 {
		return "1 minute"
	}
	return strconv.Itoa(n) + " minutes"
}
