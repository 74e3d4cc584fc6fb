package contentaddr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
)

const (
	DefaultPinataEndpoint = "https://api.pinata.cloud/pinning/pinFileToIPFS"
	DefaultTimeout        = 60 * time.Second

	maxResponseBytes = 1 << 20
)

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Delegated pins payloads with a Pinata-compatible service.
type Delegated struct {
	endpoint string
	apiKey   string
	secret   string
	timeout  time.Duration
	http     *http.Client
	fallback *Simulated
	logger   *slog.Logger
}

func NewDelegated(opts Options, fallback *Simulated, logger *slog.Logger) *Delegated {
	if logger == nil {
		logger = slog.Default()
	}
	if fallback == nil {
		fallback = NewSimulated(nil, logger)
	}
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = DefaultPinataEndpoint
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Delegated{
		endpoint: endpoint,
		apiKey:   strings.TrimSpace(opts.APIKey),
		secret:   strings.TrimSpace(opts.Secret),
		timeout:  timeout,
		http:     &http.Client{},
		fallback: fallback,
		logger:   logger,
	}
}

// Store pins data and returns the provider id unmodified. Any failure falls
// back to the simulated id so deliveries are never blocked by the provider.
func (d *Delegated) Store(ctx context.Context, data []byte, filename string) (string, error) {
	id, err := d.pin(ctx, data, filename)
	if err != nil {
		d.logger.Warn("pinning failed; using simulated cid", "filename", filename, "error", err)
		return d.fallback.Store(ctx, data, filename)
	}
	d.fallback.keep(ctx, id, data, filename)
	return id, nil
}

func (d *Delegated) pin(ctx context.Context, data []byte, filename string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	body, contentType, err := multipartBody(data, filename)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("pinata_api_key", d.apiKey)
	req.Header.Set("pinata_secret_api_key", d.secret)

	resp, err := d.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return "", fmt.Errorf("pinning service returned %d", resp.StatusCode)
	}

	var pinned pinResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&pinned); err != nil {
		return "", fmt.Errorf("decode pin response: %w", err)
	}
	id := strings.TrimSpace(pinned.IpfsHash)
	if id == "" {
		return "", fmt.Errorf("pin response missing IpfsHash")
	}
	if _, err := cid.Decode(id); err != nil {
		return "", fmt.Errorf("pin response carried invalid cid %q: %w", id, err)
	}
	return id, nil
}

func multipartBody(data []byte, filename string) (io.Reader, string, error) {
	if strings.TrimSpace(filename) == "" {
		filename = "deliverable"
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
