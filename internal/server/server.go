package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"morphire/internal/api"
	"morphire/internal/auth"
	"morphire/internal/config"
	"morphire/internal/ledger"
	"morphire/internal/models"
	"morphire/internal/notify"
	"morphire/internal/store"
)

const (
	allowRemoteEnvKey = "MORPHIRE_ALLOW_REMOTE"
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 2 * time.Minute
	writeTimeout      = 2 * time.Minute
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Options wires the server's collaborators.
type Options struct {
	Store              store.DocumentStore
	Ledger             *ledger.Ledger
	Notifier           notify.Notifier
	Gate               *auth.Gate
	ContentMode        string
	WebhookEnabled     bool
	MaxUploadBytes     int64
	MultipartMaxMemory int64
	Logger             *slog.Logger
}

// Server wraps HTTP handlers for the morphire API.
type Server struct {
	addr               string
	service            *DocumentService
	gate               *auth.Gate
	info               api.InfoResponse
	maxUploadBytes     int64
	multipartMaxMemory int64
	logger             *slog.Logger
}

// New creates a new server instance.
func New(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = config.DefaultDeliveryMaxUploadBytes
	}
	multipartMemory := opts.MultipartMaxMemory
	if multipartMemory <= 0 {
		multipartMemory = config.DefaultDeliveryMultipartMemory
	}

	return &Server{
		addr:    addr,
		service: NewDocumentService(opts.Store, opts.Ledger, opts.Notifier),
		gate:    opts.Gate,
		info: api.InfoResponse{
			DocumentVersion: models.DocumentVersion,
			StoreBackend:    opts.Store.Backend(),
			ContentAddress:  opts.ContentMode,
			Webhook:         opts.WebhookEnabled,
			AccessGate:      opts.Gate.Enabled(),
		},
		maxUploadBytes:     maxUpload,
		multipartMaxMemory: multipartMemory,
		logger:             logger,
	}
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.withRequestID(s.withRequestLogging(s.withAccess(s.withIdentity(s.routes()))))
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down.
func (s *Server) Serve(ctx context.Context) error {
	s.log().Info("starting server", "addr", s.addr, "store", s.info.StoreBackend, "content_address", s.info.ContentAddress, "webhook", s.info.Webhook)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
