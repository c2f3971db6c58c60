// FILE: src/internal/uploader/http_test.go
package uploader

import (
	"context"
	"net"
	"sync"
	"testing"

	"arrowship/src/internal/auth"
	"arrowship/src/internal/config"
	"arrowship/src/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type capturedRequest struct {
	method      string
	path        string
	contentType string
	headers     map[string]string
	body        []byte
}

// testCollector runs a fasthttp server on an in-memory listener and
// records every request it receives.
type testCollector struct {
	ln     *fasthttputil.InmemoryListener
	status int
	reply  []byte

	mu       sync.Mutex
	requests []capturedRequest
}

func newTestCollector(t *testing.T, status int, reply []byte) *testCollector {
	t.Helper()

	c := &testCollector{
		ln:     fasthttputil.NewInmemoryListener(),
		status: status,
		reply:  reply,
	}

	srv := &fasthttp.Server{Handler: c.handle}
	go srv.Serve(c.ln)
	t.Cleanup(func() { c.ln.Close() })

	return c
}

func (c *testCollector) handle(ctx *fasthttp.RequestCtx) {
	captured := capturedRequest{
		method:      string(ctx.Method()),
		path:        string(ctx.Path()),
		contentType: string(ctx.Request.Header.ContentType()),
		headers:     map[string]string{},
	}
	for _, name := range []string{
		HeaderEvent, HeaderSchema, HeaderRows, HeaderRawSize,
		HeaderTenant, HeaderRequestID, HeaderSessionID, "Authorization",
	} {
		captured.headers[name] = string(ctx.Request.Header.Peek(name))
	}
	captured.body = append([]byte(nil), ctx.Request.Body()...)

	c.mu.Lock()
	c.requests = append(c.requests, captured)
	c.mu.Unlock()

	ctx.SetStatusCode(c.status)
	if len(c.reply) > 0 {
		ctx.SetBody(c.reply)
	}
}

func (c *testCollector) request(i int) capturedRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests[i]
}

func newTestTransport(t *testing.T, c *testCollector, authCfg *config.AuthConfig) *HTTPTransport {
	t.Helper()

	cfg := newTestConfig()
	cfg.URL = "http://collector.internal/v1/frames"
	cfg.Tenant = "tenant-a"
	cfg.Auth = authCfg

	var tokens auth.TokenSource
	if authCfg != nil {
		var err error
		tokens, err = auth.NewTokenSource(authCfg, newTestLogger())
		require.NoError(t, err)
	}

	tr, err := NewHTTPTransport(cfg, tokens, newTestLogger())
	require.NoError(t, err)
	tr.client.Dial = func(addr string) (net.Conn, error) {
		return c.ln.Dial()
	}
	return tr
}

func TestHTTPTransportSend(t *testing.T) {
	collector := newTestCollector(t, fasthttp.StatusOK, nil)
	tr := newTestTransport(t, collector, &config.AuthConfig{Type: "token", Token: "test-token"})

	batch := testBatch("AppLog")
	require.NoError(t, tr.Send(context.Background(), batch))

	req := collector.request(0)
	assert.Equal(t, fasthttp.MethodPost, req.method)
	assert.Equal(t, "/v1/frames", req.path)
	assert.Equal(t, frameContentType, req.contentType)
	assert.Equal(t, batch.Payload, req.body)

	assert.Equal(t, "AppLog", req.headers[HeaderEvent])
	assert.Equal(t, "00000000feedface", req.headers[HeaderSchema])
	assert.Equal(t, "3", req.headers[HeaderRows])
	assert.Equal(t, "7", req.headers[HeaderRawSize])
	assert.Equal(t, "tenant-a", req.headers[HeaderTenant])
	assert.Equal(t, "Bearer test-token", req.headers["Authorization"])
	assert.NotEmpty(t, req.headers[HeaderRequestID])
	assert.NotEmpty(t, req.headers[HeaderSessionID])

	stats := tr.Stats()
	assert.Equal(t, uint64(1), stats["total_sent"])
}

func TestHTTPTransportRequestIDsUnique(t *testing.T) {
	collector := newTestCollector(t, fasthttp.StatusOK, nil)
	tr := newTestTransport(t, collector, nil)

	require.NoError(t, tr.Send(context.Background(), testBatch("a")))
	require.NoError(t, tr.Send(context.Background(), testBatch("b")))

	first := collector.request(0)
	second := collector.request(1)
	assert.NotEqual(t, first.headers[HeaderRequestID], second.headers[HeaderRequestID])
	assert.Equal(t, first.headers[HeaderSessionID], second.headers[HeaderSessionID])
	assert.Empty(t, first.headers["Authorization"])
}

func TestHTTPTransportServerReject(t *testing.T) {
	collector := newTestCollector(t, fasthttp.StatusBadRequest,
		[]byte(`{"message":"unknown schema","retryable":false}`))
	tr := newTestTransport(t, collector, nil)

	err := tr.Send(context.Background(), testBatch("AppLog"))
	require.Error(t, err)

	var ue *core.UploadError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, fasthttp.StatusBadRequest, ue.Status)
	assert.False(t, ue.Transient)
	assert.Equal(t, "unknown schema", ue.Body)
}

func TestHTTPTransportServerOverloaded(t *testing.T) {
	collector := newTestCollector(t, fasthttp.StatusServiceUnavailable, []byte("try later"))
	tr := newTestTransport(t, collector, nil)

	err := tr.Send(context.Background(), testBatch("AppLog"))
	require.Error(t, err)
	assert.True(t, core.IsTransient(err))
}

func TestClassifyStatus(t *testing.T) {
	testCases := []struct {
		name      string
		status    int
		body      []byte
		transient bool
	}{
		{"request timeout", fasthttp.StatusRequestTimeout, nil, true},
		{"too many requests", fasthttp.StatusTooManyRequests, nil, true},
		{"internal error", fasthttp.StatusInternalServerError, nil, true},
		{"bad gateway", fasthttp.StatusBadGateway, nil, true},
		{"bad request", fasthttp.StatusBadRequest, nil, false},
		{"not found", fasthttp.StatusNotFound, nil, false},
		{"payload too large", fasthttp.StatusRequestEntityTooLarge, nil, false},
		{"unexpected redirect", fasthttp.StatusFound, nil, false},
		{"server marks retryable", fasthttp.StatusBadRequest, []byte(`{"retryable":true}`), true},
		{"server marks permanent", fasthttp.StatusServiceUnavailable, []byte(`{"retryable":false}`), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ue := classifyStatus(tc.status, tc.body)
			assert.Equal(t, tc.transient, ue.Transient)
			assert.Equal(t, tc.status, ue.Status)
		})
	}
}
