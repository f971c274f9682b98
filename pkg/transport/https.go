package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"time"
)

// ErrTransport is returned for connection failures and non-200 answers
var ErrTransport = errors.New("transport error")

// TLS version constants
const (
	TLS12 = tls.VersionTLS12
	TLS13 = tls.VersionTLS13
)

// MaxResponseSize bounds the response body read from an authorizer
const MaxResponseSize = 16 << 20

// UserAgent sent with every request
const UserAgent = "go-nfe/1.0"

// RecommendedTLS12CipherSuites are offered when TLS 1.2 is negotiated
var RecommendedTLS12CipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_RSA_WITH_AES_128_GCM_SHA256,
}

// HTTPSConfig contains HTTPS client configuration
type HTTPSConfig struct {
	MinTLSVersion   uint16
	MaxTLSVersion   uint16
	CipherSuites    []uint16
	Certificates    []tls.Certificate
	RootCAs         *x509.CertPool
	Timeout         time.Duration
	IdleConnTimeout time.Duration
}

// DefaultHTTPSConfig returns a default HTTPS configuration
func DefaultHTTPSConfig() *HTTPSConfig {
	return &HTTPSConfig{
		MinTLSVersion:   TLS12,
		MaxTLSVersion:   TLS13,
		CipherSuites:    RecommendedTLS12CipherSuites,
		Timeout:         30 * time.Second,
		IdleConnTimeout: 90 * time.Second,
	}
}

// HTTPSClient posts SOAP 1.2 envelopes to authorizer endpoints
type HTTPSClient struct {
	client  *http.Client
	config  *HTTPSConfig
	logger  *slog.Logger
	maxBody int64
}

// NewHTTPSClient creates a new HTTPS client
func NewHTTPSClient(config *HTTPSConfig, logger *slog.Logger) *HTTPSClient {
	if config == nil {
		config = DefaultHTTPSConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	minVersion := config.MinTLSVersion
	if minVersion == 0 {
		minVersion = TLS12
	}

	tlsConfig := &tls.Config{
		MinVersion:   minVersion,
		MaxVersion:   config.MaxTLSVersion,
		CipherSuites: config.CipherSuites,
		Certificates: config.Certificates,
		RootCAs:      config.RootCAs,
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSClientConfig:     tlsConfig,
		IdleConnTimeout:     config.IdleConnTimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
	}

	return &HTTPSClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		config:  config,
		logger:  logger,
		maxBody: MaxResponseSize,
	}
}

// ContentType returns the SOAP 1.2 media type carrying the action
func ContentType(action string) string {
	params := map[string]string{"charset": "utf-8"}
	if action != "" {
		params["action"] = action
	}
	return mime.FormatMediaType("application/soap+xml", params)
}

// Send posts the envelope to the endpoint and returns the response body.
// A non-200 answer returns its body along with an error wrapping ErrTransport.
func (c *HTTPSClient) Send(ctx context.Context, endpoint, action string, envelope []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(envelope))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrTransport, err)
	}

	req.Header.Set("Content-Type", ContentType(action))
	req.Header.Set("User-Agent", UserAgent)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "endpoint", endpoint, "error", err)
		return nil, fmt.Errorf("%w: failed to send request: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrTransport, err)
	}
	if int64(len(body)) > c.maxBody {
		c.logger.Warn("response too large", "endpoint", endpoint, "limit", c.maxBody)
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrTransport, c.maxBody)
	}

	c.logger.Debug("response received",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return body, fmt.Errorf("%w: unexpected status code %d", ErrTransport, resp.StatusCode)
	}
	return body, nil
}

// LoadRootCAs builds a certificate pool from PEM bundles.
// With no paths the system pool is returned.
func LoadRootCAs(paths ...string) (*x509.CertPool, error) {
	if len(paths) == 0 {
		return x509.SystemCertPool()
	}
	pool := x509.NewCertPool()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading CA bundle: %w", err)
		}
		if !pool.AppendCertsFromPEM(data) {
			return nil, fmt.Errorf("no certificates found in %s", path)
		}
	}
	return pool, nil
}
