// Package purpleair is a minimal client for the PurpleAir sensor history API.
package purpleair

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/airseries/internal/contract"
	"github.com/huangsam/airseries/schema"
)

// APIKeyHeader carries the read key on every request.
const APIKeyHeader = "X-API-KEY"

// DefaultTimeout bounds a single history request.
const DefaultTimeout = 60 * time.Second

// maxErrorBody caps how much of an error response is kept for the message.
const maxErrorBody = 512

// Client fetches sensor history over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ contract.HistoryClient = &Client{} // Compile-time check

// NewClient returns a Client for the given API base URL, e.g. "https://api.purpleair.com/v1".
// A nil httpClient uses one with DefaultTimeout.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}
}

// FetchHistory issues GET {base}/sensors/{id}/history. Any transport failure,
// non-2xx status or undecodable body is returned as a *contract.RemoteError.
func (c *Client) FetchHistory(ctx context.Context, sensorID int, q schema.HistoryQuery) (*schema.HistoryResponse, error) {
	endpoint := fmt.Sprintf("%s/sensors/%d/history?%s", c.baseURL, sensorID, encodeQuery(q))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &contract.RemoteError{SensorID: sensorID, Err: err}
	}
	req.Header.Set(APIKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &contract.RemoteError{SensorID: sensorID, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &contract.RemoteError{
			SensorID:   sensorID,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	var out schema.HistoryResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber() // keep the exact decimal text of every value
	if err := dec.Decode(&out); err != nil {
		return nil, &contract.RemoteError{SensorID: sensorID, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &out, nil
}

func encodeQuery(q schema.HistoryQuery) string {
	values := url.Values{}
	values.Set("fields", strings.Join(q.Fields, ","))
	if q.StartTimestamp != nil {
		values.Set("start_timestamp", strconv.FormatInt(*q.StartTimestamp, 10))
	}
	if q.EndTimestamp != nil {
		values.Set("end_timestamp", strconv.FormatInt(*q.EndTimestamp, 10))
	}
	return values.Encode()
}
