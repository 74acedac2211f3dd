package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const API_TIMEOUT = 15 * time.Second

// API is the subset of the pipeline REST API the board talks to.
type API interface {
	ListStages(ctx context.Context, pipelineType string) ([]Stage, error)
	ListLeads(ctx context.Context, pipelineType string) ([]Lead, error)
	MoveLead(ctx context.Context, leadID, stageID string, position int) error
}

// APIError is a non-2xx answer of the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api answered %d", e.Status)
	}
	return e.Message
}

type APIClient struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ API = (*APIClient)(nil)

// NewAPIClient talks to the API under baseURL (e.g. https://host/v1) with a
// bearer token. httpClient may be nil.
func NewAPIClient(baseURL, token string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: API_TIMEOUT}
	}
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

func (c *APIClient) ListStages(ctx context.Context, pipelineType string) ([]Stage, error) {
	stages := []Stage{}
	err := c.do(ctx, http.MethodGet, "/stages?pipeline_type="+url.QueryEscape(pipelineType), nil, &stages)
	return stages, err
}

func (c *APIClient) ListLeads(ctx context.Context, pipelineType string) ([]Lead, error) {
	leads := []Lead{}
	err := c.do(ctx, http.MethodGet, "/leads?pipeline_type="+url.QueryEscape(pipelineType), nil, &leads)
	return leads, err
}

func (c *APIClient) MoveLead(ctx context.Context, leadID, stageID string, position int) error {
	body := map[string]any{"stage_id": stageID, "position": position}
	return c.do(ctx, http.MethodPatch, "/leads/"+url.PathEscape(leadID)+"/move", body, nil)
}

func (c *APIClient) do(ctx context.Context, method, path string, body, data any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	envelope := struct {
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}{}
	decodeErr := json.NewDecoder(resp.Body).Decode(&envelope)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: envelope.Message}
	}
	if data == nil || len(envelope.Data) == 0 {
		return nil
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if err := json.Unmarshal(envelope.Data, data); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
