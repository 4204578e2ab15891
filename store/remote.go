package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const remoteFetchAttempts = 3

// Remote talks to the hosted record API. Fetches are retried on transient
// failures; writes are attempted exactly once so a failed mutation is never
// silently replayed.
type Remote struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewRemote builds a client for the hosted record API.
func NewRemote(baseURL, apiKey string) (*Remote, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base URL not provided", ErrUnavailable)
	}

	return &Remote{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

type fetchRequest struct {
	Fields  []string      `json:"fields,omitempty"`
	Filters []remoteWhere `json:"where,omitempty"`
	OrderBy string        `json:"orderBy,omitempty"`
	Desc    bool          `json:"desc,omitempty"`
	Limit   int           `json:"limit,omitempty"`
}

type remoteWhere struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

type fetchResponse struct {
	Records []Record `json:"records"`
}

type writeRequest struct {
	Records []Record `json:"records,omitempty"`
	IDs     []string `json:"ids,omitempty"`
}

type writeResponse struct {
	Results []Result `json:"results"`
}

// Fetch returns the records of a collection matching the query, retrying
// transient failures.
func (r *Remote) Fetch(ctx context.Context, collection string, q Query) ([]Record, error) {
	body := fetchRequest{
		Fields:  q.Fields,
		OrderBy: q.OrderBy,
		Desc:    q.Desc,
		Limit:   q.Limit,
	}
	for _, f := range q.Filters {
		body.Filters = append(body.Filters, remoteWhere{Field: f.Field, Value: f.Value})
	}

	var out fetchResponse
	err := retry.Do(
		func() error {
			return r.call(ctx, http.MethodPost, collection+"/fetch", body, &out)
		},
		retry.Context(ctx),
		retry.Attempts(remoteFetchAttempts),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", collection, err)
	}

	return out.Records, nil
}

// Create inserts records and returns per-record outcomes.
func (r *Remote) Create(ctx context.Context, collection string, records []Record) ([]Result, error) {
	return r.write(ctx, http.MethodPost, collection, writeRequest{Records: records})
}

// Update rewrites records keyed by their "id" field.
func (r *Remote) Update(ctx context.Context, collection string, records []Record) ([]Result, error) {
	return r.write(ctx, http.MethodPatch, collection, writeRequest{Records: records})
}

// Delete removes records by identity.
func (r *Remote) Delete(ctx context.Context, collection string, ids []string) ([]Result, error) {
	return r.write(ctx, http.MethodDelete, collection, writeRequest{IDs: ids})
}

func (r *Remote) write(ctx context.Context, method, collection string, body writeRequest) ([]Result, error) {
	var out writeResponse
	if err := r.call(ctx, method, collection, body, &out); err != nil {
		return nil, fmt.Errorf("%s %s: %w", strings.ToLower(method), collection, err)
	}
	return out.Results, nil
}

func (r *Remote) call(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", r.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("record API %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
