package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"morphire/internal/models"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	uploadHTTPTimeout  = 2 * time.Minute
	httpTimeoutEnvKey  = "MORPHIRE_HTTP_TIMEOUT"
	accessEnvKey       = "MORPHIRE_ACCESS"
)

// Client is a simple HTTP client for the morphire API. Every call acts on
// behalf of one identity.
type Client struct {
	baseURL  string
	http     *http.Client
	upload   *http.Client
	identity string
	access   string
}

// NewClient creates a new API client for identity.
func NewClient(baseURL, identity string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: httpTimeoutFromEnv()},
		upload:   &http.Client{Timeout: uploadHTTPTimeout},
		identity: strings.TrimSpace(identity),
		access:   os.Getenv(accessEnvKey),
	}
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) GetInfo(ctx context.Context) (InfoResponse, error) {
	var resp InfoResponse
	err := c.do(ctx, http.MethodGet, "/v1/info", nil, nil, &resp)
	return resp, err
}

func (c *Client) GetDocument(ctx context.Context) (models.Document, error) {
	var resp models.Document
	err := c.do(ctx, http.MethodGet, "/v1/document", nil, nil, &resp)
	return resp, err
}

func (c *Client) GetSummary(ctx context.Context) (SummaryResponse, error) {
	var resp SummaryResponse
	err := c.do(ctx, http.MethodGet, "/v1/summary", nil, nil, &resp)
	return resp, err
}

func (c *Client) ListJobs(ctx context.Context, query url.Values) ([]models.Job, error) {
	var resp []models.Job
	err := c.do(ctx, http.MethodGet, "/v1/jobs", query, nil, &resp)
	return resp, err
}

func (c *Client) GetJob(ctx context.Context, id string) (models.Job, error) {
	var resp models.Job
	err := c.do(ctx, http.MethodGet, "/v1/jobs/"+url.PathEscape(id), nil, nil, &resp)
	return resp, err
}

func (c *Client) CreateJob(ctx context.Context, req JobCreateRequest) (models.Job, error) {
	var resp models.Job
	err := c.do(ctx, http.MethodPost, "/v1/jobs", nil, req, &resp)
	return resp, err
}

func (c *Client) UpdateStatus(ctx context.Context, id string, req JobStatusRequest) (models.Job, error) {
	var resp models.Job
	err := c.do(ctx, http.MethodPost, "/v1/jobs/"+url.PathEscape(id)+"/status", nil, req, &resp)
	return resp, err
}

func (c *Client) AppendChat(ctx context.Context, id string, req ChatRequest) (models.ChatMessage, error) {
	var resp models.ChatMessage
	err := c.do(ctx, http.MethodPost, "/v1/jobs/"+url.PathEscape(id)+"/chat", nil, req, &resp)
	return resp, err
}

func (c *Client) SettlePayment(ctx context.Context, id string, req PaymentRequest) (PaymentResponse, error) {
	var resp PaymentResponse
	err := c.do(ctx, http.MethodPost, "/v1/jobs/"+url.PathEscape(id)+"/payment", nil, req, &resp)
	return resp, err
}

func (c *Client) UpdateProfile(ctx context.Context, req ProfileUpdateRequest) (models.Profile, error) {
	var resp models.Profile
	err := c.do(ctx, http.MethodPatch, "/v1/profile", nil, req, &resp)
	return resp, err
}

func (c *Client) RecordRating(ctx context.Context, req RatingRequest) (RatingResponse, error) {
	var resp RatingResponse
	err := c.do(ctx, http.MethodPost, "/v1/profile/ratings", nil, req, &resp)
	return resp, err
}

func (c *Client) IdentityKey(ctx context.Context) (IdentityKeyResponse, error) {
	var resp IdentityKeyResponse
	err := c.do(ctx, http.MethodGet, "/v1/identity/key", nil, nil, &resp)
	return resp, err
}

// UploadDelivery sends one deliverable as multipart form data.
func (c *Client) UploadDelivery(ctx context.Context, id, filename, uploader string, content io.Reader) (models.DeliveryArtifact, error) {
	var resp models.DeliveryArtifact

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if uploader != "" {
		if err := writer.WriteField("uploader", uploader); err != nil {
			return resp, err
		}
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return resp, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return resp, err
	}
	if err := writer.Close(); err != nil {
		return resp, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/jobs/"+url.PathEscape(id)+"/deliveries", &body)
	if err != nil {
		return resp, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setHeaders(req)

	httpResp, err := c.upload.Do(req)
	if err != nil {
		return resp, err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode >= 400 {
		return resp, decodeError(httpResp)
	}
	err = json.NewDecoder(httpResp.Body).Decode(&resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		return &APIError{
			Status:    resp.StatusCode,
			Code:      errResp.Code,
			ErrorCode: errResp.ErrorCode,
			Message:   errResp.Error,
			Details:   errResp.Details,
		}
	}
	return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("api error: %s", resp.Status)}
}

func (c *Client) setHeaders(req *http.Request) {
	if req == nil {
		return
	}
	if c.identity != "" {
		req.Header.Set(IdentityHeader, c.identity)
	}
	if c.access != "" {
		req.Header.Set(AccessHeader, c.access)
	}
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
