// FILE: src/internal/uploader/http.go
package uploader

import (
	"context"
	"crypto/tls"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"arrowship/src/internal/auth"
	"arrowship/src/internal/config"
	"arrowship/src/internal/core"
	ltls "arrowship/src/internal/tls"
	"arrowship/src/internal/version"

	"github.com/google/uuid"
	"github.com/lixenwraith/log"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fastjson"
)

// Request headers describing the frame being posted.
const (
	HeaderEvent     = "X-Arrowship-Event"
	HeaderSchema    = "X-Arrowship-Schema"
	HeaderRows      = "X-Arrowship-Rows"
	HeaderRawSize   = "X-Arrowship-Raw-Size"
	HeaderTenant    = "X-Arrowship-Tenant"
	HeaderAccount   = "X-Arrowship-Account"
	HeaderNamespace = "X-Arrowship-Namespace"
	HeaderRequestID = "X-Request-Id"
	HeaderSessionID = "X-Session-Id"
)

const frameContentType = "application/vnd.arrowship.frame"

// Longest error body fragment carried into an UploadError.
const maxErrorBody = 512

// HTTPTransport posts frames to a collector endpoint.
type HTTPTransport struct {
	// Configuration
	config  *config.UploadConfig
	timeout time.Duration

	// Network
	client     *fasthttp.Client
	tlsManager *ltls.ClientManager

	// Security & Session
	tokens    auth.TokenSource
	sessionID string

	logger *log.Logger

	// Statistics
	totalSent   atomic.Uint64
	totalErrors atomic.Uint64
	totalBytes  atomic.Uint64
}

// NewHTTPTransport creates the HTTP transport for the upload pipeline.
func NewHTTPTransport(cfg *config.UploadConfig, tokens auth.TokenSource, logger *log.Logger) (*HTTPTransport, error) {
	if cfg == nil {
		return nil, fmt.Errorf("upload config cannot be nil")
	}

	t := &HTTPTransport{
		config:    cfg,
		timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
		tokens:    tokens,
		sessionID: uuid.NewString(),
		logger:    logger,
	}

	t.client = &fasthttp.Client{
		MaxConnsPerHost:               10,
		MaxIdleConnDuration:           10 * time.Second,
		ReadTimeout:                   t.timeout,
		WriteTimeout:                  t.timeout,
		DisableHeaderNamesNormalizing: true,
	}

	// Configure TLS for HTTPS
	if strings.HasPrefix(cfg.URL, "https://") {
		if cfg.TLS != nil && cfg.TLS.Enabled {
			tlsManager, err := ltls.NewClientManager(cfg.TLS, logger)
			if err != nil {
				return nil, fmt.Errorf("failed to create TLS client manager: %w", err)
			}
			t.tlsManager = tlsManager
			t.client.TLSConfig = tlsManager.GetConfig()
		} else if cfg.InsecureSkipVerify {
			t.client.TLSConfig = &tls.Config{
				InsecureSkipVerify: true,
			}
		}
	}

	logger.Info("msg", "HTTP transport created",
		"component", "uploader",
		"url", cfg.URL,
		"session_id", t.sessionID,
		"timeout_seconds", cfg.TimeoutSeconds)
	return t, nil
}

// Send posts one frame. Network failures and retryable statuses come
// back as transient UploadErrors, rejects as terminal ones.
func (t *HTTPTransport) Send(ctx context.Context, batch *core.EncodedBatch) error {
	if err := ctx.Err(); err != nil {
		return &core.UploadError{Transient: true, Err: err}
	}

	// Acquire resources per attempt, release immediately after use
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()

	req.SetRequestURI(t.config.URL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType(frameContentType)
	req.SetBody(batch.Payload)

	req.Header.Set("User-Agent", fmt.Sprintf("Arrowship/%s", version.Short()))
	req.Header.Set(HeaderEvent, batch.EventName)
	req.Header.Set(HeaderSchema, fmt.Sprintf("%016x", batch.SchemaID))
	req.Header.Set(HeaderRows, strconv.Itoa(batch.Rows))
	req.Header.Set(HeaderRawSize, strconv.Itoa(batch.RawSize))
	req.Header.Set(HeaderRequestID, uuid.NewString())
	req.Header.Set(HeaderSessionID, t.sessionID)

	if t.config.Tenant != "" {
		req.Header.Set(HeaderTenant, t.config.Tenant)
	}
	if t.config.Account != "" {
		req.Header.Set(HeaderAccount, t.config.Account)
	}
	if t.config.Namespace != "" {
		req.Header.Set(HeaderNamespace, t.config.Namespace)
	}

	if t.tokens != nil {
		token, err := t.tokens.Token()
		if err != nil {
			fasthttp.ReleaseRequest(req)
			fasthttp.ReleaseResponse(resp)
			t.totalErrors.Add(1)
			return &core.UploadError{Transient: true, Err: fmt.Errorf("token source: %w", err)}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	err := t.client.DoTimeout(req, resp, t.timeout)

	// Capture response before releasing
	statusCode := resp.StatusCode()
	var responseBody []byte
	if len(resp.Body()) > 0 {
		responseBody = make([]byte, len(resp.Body()))
		copy(responseBody, resp.Body())
	}

	fasthttp.ReleaseRequest(req)
	fasthttp.ReleaseResponse(resp)

	if err != nil {
		t.totalErrors.Add(1)
		return &core.UploadError{Transient: true, Err: fmt.Errorf("request failed: %w", err)}
	}

	if statusCode >= 200 && statusCode < 300 {
		t.totalSent.Add(1)
		t.totalBytes.Add(uint64(len(batch.Payload)))
		return nil
	}

	t.totalErrors.Add(1)
	return classifyStatus(statusCode, responseBody)
}

// Close releases idle connections.
func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// Stats returns transport statistics.
func (t *HTTPTransport) Stats() map[string]any {
	stats := map[string]any{
		"type":         "http",
		"url":          t.config.URL,
		"session_id":   t.sessionID,
		"total_sent":   t.totalSent.Load(),
		"total_errors": t.totalErrors.Load(),
		"total_bytes":  t.totalBytes.Load(),
	}
	if t.tlsManager != nil {
		stats["tls"] = t.tlsManager.GetStats()
	}
	return stats
}

// classifyStatus maps a non-2xx response to an UploadError. 408, 429
// and 5xx are transient; other statuses are terminal. A JSON error
// body can override the classification via its "retryable" field.
func classifyStatus(status int, body []byte) *core.UploadError {
	transient := status == fasthttp.StatusRequestTimeout ||
		status == fasthttp.StatusTooManyRequests ||
		status >= 500

	ue := &core.UploadError{
		Status:    status,
		Transient: transient,
	}

	if len(body) > 0 {
		if v, err := fastjson.ParseBytes(body); err == nil {
			if v.Exists("retryable") {
				ue.Transient = v.GetBool("retryable")
			}
			if msg := v.GetStringBytes("message"); len(msg) > 0 {
				body = msg
			}
		}
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		ue.Body = string(body)
	}

	return ue
}
