// Package tideapi implements the rate-limited, retrying, caching HTTP
// client against the remote tide-gauge service (§4.5), grounded on the
// pack's mapbox Client/CachedGeocoder request-and-decorate shape.
package tideapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/alitto/pond"
)

// Profile selects between the public and private API flavors (§4.5):
// differences are confined to endpoint templates, time-series discovery,
// and event-date encoding.
type Profile string

const (
	ProfilePublic  Profile = "public"
	ProfilePrivate Profile = "private"
)

// Response is the uniform response envelope (§4.5).
type Response struct {
	StatusCode int
	Data       json.RawMessage
	Message    string
	Errors     []string
}

// IsOk reports whether the response represents a full success.
func (r Response) IsOk() bool { return r.StatusCode == http.StatusOK }

// Sample is one time-series observation (§3 WaterLevelSample, §6 payload).
type Sample struct {
	EventDate time.Time `json:"event_date"`
	ValueM    *float64  `json:"value"`
	QCFlag    string    `json:"qc_flag,omitempty"`
}

type sampleWire struct {
	EventDate    string   `json:"event_date"`
	EventDateEpoch *int64 `json:"event_date_epoch"`
	Value        *float64 `json:"value"`
	QCFlag       string   `json:"qc_flag"`
}

// Station mirrors internal/tide.Station's wire shape.
type Station struct {
	ID                  string   `json:"id"`
	Code                string   `json:"code"`
	Name                string   `json:"name"`
	Longitude           float64  `json:"longitude"`
	Latitude            float64  `json:"latitude"`
	AvailableTimeSeries []string `json:"timeSeries"`
	IsTidal             bool     `json:"isTidal"`
}

var retryableStatus = map[int]struct{}{
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

var stationIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{24}$`)

// dateLayout is the strict query-parameter date format (§4.5, §6).
const dateLayout = "2006-01-02T15:04:05Z"

// Config configures a Client.
type Config struct {
	Profile        Profile
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	BlockSize      time.Duration
	FetchPoolSize  int
	RateCalls      int
	RatePeriod     time.Duration
	CacheTTL       time.Duration
	MetadataTTL    time.Duration
	KnownCodes     map[string]struct{}
}

// DefaultConfig returns the spec's documented defaults (§4.5).
func DefaultConfig(profile Profile, baseURL string) Config {
	return Config{
		Profile:       profile,
		BaseURL:       baseURL,
		Timeout:       5 * time.Second,
		MaxRetries:    5,
		BlockSize:     7 * 24 * time.Hour,
		FetchPoolSize: 10,
		RateCalls:     10,
		RatePeriod:    time.Second,
		CacheTTL:      600 * time.Second,
		MetadataTTL:   20 * time.Minute,
	}
}

// Client is the tidal HTTP API client (§4.5).
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *TokenBucket
	cache      *responseCache
	stations   *metadataCache
	logger     *slog.Logger
	randFunc   func() float64
}

// NewClient builds a Client; logger may be nil to discard logs.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    NewTokenBucket(cfg.RateCalls, cfg.RatePeriod),
		cache:      newResponseCache(cfg.CacheTTL),
		stations:   newMetadataCache(cfg.MetadataTTL),
		logger:     logger,
		randFunc:   rand.Float64,
	}
}

// ValidateStationID checks the §4.5 station id contract (24 chars).
func ValidateStationID(id string) error {
	if !stationIDPattern.MatchString(id) {
		return fmt.Errorf("invalid station id %q: must be 24 alphanumeric characters", id)
	}
	return nil
}

// ValidateDate checks a query-parameter date against the strict §4.5/§6
// format before it is ever sent.
func ValidateDate(t time.Time) error {
	_, err := time.Parse(dateLayout, t.UTC().Format(dateLayout))
	return err
}

// ValidateCode checks code against the client's known time-series enum,
// when configured.
func (c *Client) ValidateCode(code string) error {
	if len(c.cfg.KnownCodes) == 0 {
		return nil
	}
	if _, ok := c.cfg.KnownCodes[code]; !ok {
		return fmt.Errorf("unknown time-series code %q", code)
	}
	return nil
}

func (c *Client) stationsPath() string {
	if c.cfg.Profile == ProfilePrivate {
		return "/rest/stations"
	}
	return "/api/v1/stations"
}

func (c *Client) stationPath(id string) string {
	if c.cfg.Profile == ProfilePrivate {
		return "/rest/stations/" + id
	}
	return "/api/v1/stations/" + id
}

func (c *Client) dataPath(id string) string {
	if c.cfg.Profile == ProfilePrivate {
		return "/rest/stations/" + id + "/time-series"
	}
	return "/api/v1/stations/" + id + "/data"
}

// GetAllStations fetches the full station list (§4.5), cached per
// MetadataTTL.
func (c *Client) GetAllStations(ctx context.Context) ([]Station, error) {
	const key = "all-stations"
	if resp, ok := c.stations.get(key); ok {
		return decodeStations(resp.Data)
	}

	resp, err := c.get(ctx, c.cfg.BaseURL+c.stationsPath(), nil)
	if err != nil {
		return nil, err
	}
	if !resp.IsOk() {
		return nil, fmt.Errorf("get all stations: status %d: %s", resp.StatusCode, resp.Message)
	}
	c.stations.put(key, resp)
	return decodeStations(resp.Data)
}

func decodeStations(raw json.RawMessage) ([]Station, error) {
	var stations []Station
	if err := json.Unmarshal(raw, &stations); err != nil {
		return nil, fmt.Errorf("decode stations: %w", err)
	}
	return stations, nil
}

// GetStationMetadata fetches full metadata (incl. isTidal) for one station
// (§4.5).
func (c *Client) GetStationMetadata(ctx context.Context, id string) (Station, error) {
	if err := ValidateStationID(id); err != nil {
		return Station{}, err
	}
	resp, err := c.get(ctx, c.cfg.BaseURL+c.stationPath(id)+"/metadata", nil)
	if err != nil {
		return Station{}, err
	}
	if !resp.IsOk() {
		return Station{}, fmt.Errorf("get station metadata %q: status %d: %s", id, resp.StatusCode, resp.Message)
	}
	var st Station
	if err := json.Unmarshal(resp.Data, &st); err != nil {
		return Station{}, fmt.Errorf("decode station metadata: %w", err)
	}
	return st, nil
}

// GetTimeSeriesBlock fetches samples over [from, to] for one station/code,
// splitting the request into ≤ BlockSize windows issued concurrently
// through a bounded pool (default 10, §4.5, §5) and aggregating. A window
// failure leaves the aggregate response partial with StatusCode 400 and a
// populated Errors slice; otherwise 200.
func (c *Client) GetTimeSeriesBlock(ctx context.Context, stationID, code string, from, to time.Time, sorted bool) (Response, error) {
	if err := ValidateStationID(stationID); err != nil {
		return Response{}, err
	}
	if err := c.ValidateCode(code); err != nil {
		return Response{}, err
	}
	if err := ValidateDate(from); err != nil {
		return Response{}, err
	}
	if err := ValidateDate(to); err != nil {
		return Response{}, err
	}

	windows := splitWindows(from, to, c.cfg.BlockSize)

	poolSize := c.cfg.FetchPoolSize
	if poolSize <= 0 {
		poolSize = 10
	}
	if poolSize > len(windows) {
		poolSize = len(windows)
	}
	if poolSize < 1 {
		poolSize = 1
	}
	pool := pond.New(poolSize, 0, pond.MinWorkers(poolSize), pond.Context(ctx))

	samples := make([][]Sample, len(windows))
	errs := make([]error, len(windows))
	var mu sync.Mutex

	for i, w := range windows {
		idx, win := i, w
		pool.Submit(func() {
			s, err := c.fetchWindow(ctx, stationID, code, win.from, win.to)
			mu.Lock()
			samples[idx] = s
			errs[idx] = err
			mu.Unlock()
		})
	}
	pool.StopAndWait()

	var combined []Sample
	var errMsgs []string
	for i, err := range errs {
		if err != nil {
			errMsgs = append(errMsgs, err.Error())
			continue
		}
		combined = append(combined, samples[i]...)
	}

	if sorted {
		sort.Slice(combined, func(i, j int) bool { return combined[i].EventDate.Before(combined[j].EventDate) })
	}

	data, err := json.Marshal(combined)
	if err != nil {
		return Response{}, fmt.Errorf("marshal aggregated samples: %w", err)
	}

	if len(errMsgs) > 0 {
		return Response{StatusCode: http.StatusBadRequest, Data: data, Errors: errMsgs}, nil
	}
	return Response{StatusCode: http.StatusOK, Data: data}, nil
}

// GetTimeSeriesMulti fetches code in codes concurrently for one station
// over one interval (§4.5).
func (c *Client) GetTimeSeriesMulti(ctx context.Context, stationID string, codes []string, from, to time.Time) map[string]Response {
	out := make(map[string]Response, len(codes))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, code := range codes {
		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			resp, err := c.GetTimeSeriesBlock(ctx, stationID, code, from, to, true)
			if err != nil {
				resp = Response{StatusCode: http.StatusBadRequest, Errors: []string{err.Error()}}
			}
			mu.Lock()
			out[code] = resp
			mu.Unlock()
		}(code)
	}
	wg.Wait()
	return out
}

type window struct{ from, to time.Time }

func splitWindows(from, to time.Time, blockSize time.Duration) []window {
	if blockSize <= 0 {
		return []window{{from, to}}
	}
	var windows []window
	cursor := from
	for cursor.Before(to) {
		end := cursor.Add(blockSize)
		if end.After(to) {
			end = to
		}
		windows = append(windows, window{from: cursor, to: end})
		cursor = end
	}
	if len(windows) == 0 {
		windows = append(windows, window{from, to})
	}
	return windows
}

func (c *Client) fetchWindow(ctx context.Context, stationID, code string, from, to time.Time) ([]Sample, error) {
	q := url.Values{
		"time-series-code": {code},
		"from":              {from.UTC().Format(dateLayout)},
		"to":                {to.UTC().Format(dateLayout)},
	}
	resp, err := c.get(ctx, c.cfg.BaseURL+c.dataPath(stationID), q)
	if err != nil {
		return nil, err
	}
	if !resp.IsOk() {
		return nil, fmt.Errorf("fetch window [%s, %s]: status %d: %s", from, to, resp.StatusCode, resp.Message)
	}

	var wire []sampleWire
	if err := json.Unmarshal(resp.Data, &wire); err != nil {
		return nil, fmt.Errorf("decode samples: %w", err)
	}

	samples := make([]Sample, 0, len(wire))
	for _, w := range wire {
		t, ok := decodeEventDate(w, c.cfg.Profile)
		if !ok {
			continue
		}
		samples = append(samples, Sample{EventDate: t, ValueM: w.Value, QCFlag: w.QCFlag})
	}
	return samples, nil
}

func decodeEventDate(w sampleWire, profile Profile) (time.Time, bool) {
	if profile == ProfilePrivate && w.EventDateEpoch != nil {
		return time.UnixMilli(*w.EventDateEpoch).UTC(), true
	}
	if w.EventDate != "" {
		t, err := time.Parse(time.RFC3339, w.EventDate)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	}
	return time.Time{}, false
}

// get performs a single GET with cache lookup, rate-limit acquire, and
// retry-with-backoff on the §4.5 retryable status set.
func (c *Client) get(ctx context.Context, rawURL string, query url.Values) (Response, error) {
	full := rawURL
	if query != nil {
		full = rawURL + "?" + query.Encode()
	}

	if resp, ok := c.cache.get(full); ok {
		return resp, nil
	}

	maxRetries := c.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}

	var lastErr error
	backoff := 200 * time.Millisecond
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			jittered := backoff + time.Duration(c.randFunc()*float64(backoff)/2)
			timer := time.NewTimer(jittered)
			select {
			case <-ctx.Done():
				timer.Stop()
				return Response{}, ctx.Err()
			case <-timer.C:
			}
			backoff *= 2
		}

		if err := c.limiter.Acquire(ctx); err != nil {
			return Response{}, err
		}

		resp, err := c.doOnce(ctx, full)
		if err != nil {
			lastErr = err
			continue
		}
		if _, retryable := retryableStatus[resp.StatusCode]; retryable && attempt < maxRetries {
			lastErr = fmt.Errorf("retryable status %d", resp.StatusCode)
			continue
		}
		if resp.IsOk() {
			c.cache.put(full, resp)
		}
		return resp, nil
	}

	return Response{}, fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}

func (c *Client) doOnce(ctx context.Context, fullURL string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read body: %w", err)
	}

	return Response{StatusCode: resp.StatusCode, Data: body}, nil
}
