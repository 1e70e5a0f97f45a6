package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestRequestLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		method        string
		path          string
		status        int
		providedReqID string
		wantLogFields []string
	}{
		{
			name:   "logs GET request with generated ID",
			method: http.MethodGet,
			path:   "/api/v1/lookup",
			status: http.StatusOK,
			wantLogFields: []string{
				"method=GET",
				"path=/api/v1/lookup",
				"status=200",
				"duration_ms=",
				"request_id=",
			},
		},
		{
			name:   "logs POST request",
			method: http.MethodPost,
			path:   "/api/v1/lookup",
			status: http.StatusOK,
			wantLogFields: []string{
				"method=POST",
				"status=200",
				"level=INFO",
			},
		},
		{
			name:   "client error logs at warn",
			method: http.MethodPost,
			path:   "/api/v1/lookup",
			status: http.StatusBadRequest,
			wantLogFields: []string{
				"level=WARN",
				"status=400",
			},
		},
		{
			name:   "server error logs at error",
			method: http.MethodPost,
			path:   "/api/v1/lookup",
			status: http.StatusServiceUnavailable,
			wantLogFields: []string{
				"level=ERROR",
				"status=503",
			},
		},
		{
			name:          "uses provided request ID",
			method:        http.MethodGet,
			path:          "/api/v1/lookup?q=luka+doncic+prizm",
			status:        http.StatusOK,
			providedReqID: "custom-req-id-123",
			wantLogFields: []string{
				"request_id=custom-req-id-123",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			e := echo.New()
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			if tt.providedReqID != "" {
				req.Header.Set(requestIDHeader, tt.providedReqID)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := RequestLog(logger)(func(c echo.Context) error {
				return c.NoContent(tt.status)
			})

			err := handler(c)
			require.NoError(t, err)

			logOutput := buf.String()
			for _, field := range tt.wantLogFields {
				assert.Contains(t, logOutput, field)
			}

			// Response should have the request ID header.
			respID := rec.Header().Get(requestIDHeader)
			assert.NotEmpty(t, respID)

			if tt.providedReqID != "" {
				assert.Equal(t, tt.providedReqID, respID)
			}

			// Context should have request_id.
			assert.NotEmpty(t, c.Get("request_id"))
		})
	}
}

// TestRequestLog_Probes checks which probe calls produce a log line: the
// first success per path and every failure.
func TestRequestLog_Probes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		statuses []int
		logged   []bool
	}{
		{
			name:     "repeated healthz success logs once",
			path:     "/healthz",
			statuses: []int{200, 200, 200},
			logged:   []bool{true, false, false},
		},
		{
			name:     "readyz failures always log",
			path:     "/readyz",
			statuses: []int{503, 503},
			logged:   []bool{true, true},
		},
		{
			name:     "readyz failure after suppressed successes",
			path:     "/readyz",
			statuses: []int{200, 200, 503, 200},
			logged:   []bool{true, false, true, false},
		},
		{
			name:     "api paths always log",
			path:     "/api/v1/quota",
			statuses: []int{200, 200},
			logged:   []bool{true, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			e := echo.New()
			call := 0
			handler := RequestLog(slog.New(slog.NewTextHandler(&buf, nil)))(func(c echo.Context) error {
				status := tt.statuses[call]
				call++
				return c.NoContent(status)
			})

			for i, status := range tt.statuses {
				before := buf.Len()
				req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
				require.NoError(t, handler(e.NewContext(req, httptest.NewRecorder())))

				if !tt.logged[i] {
					assert.Equal(t, before, buf.Len(), "call %d should not log", i)
					continue
				}
				line := buf.String()[before:]
				assert.Contains(t, line, "path="+tt.path)
				if status >= 400 {
					assert.Contains(t, line, "level=WARN", "probe failures log at warn")
				}
			}
		})
	}
}

func TestRequestLog_TraceID(t *testing.T) {
	t.Parallel()

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36},
		SpanID:     trace.SpanID{0x00, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7},
		TraceFlags: trace.FlagsSampled,
	})

	var buf bytes.Buffer
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/lookup", http.NoBody)
	req = req.WithContext(trace.ContextWithSpanContext(req.Context(), sc))

	handler := RequestLog(slog.New(slog.NewTextHandler(&buf, nil)))(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(e.NewContext(req, httptest.NewRecorder())))

	assert.Contains(t, buf.String(), "trace_id=4bf92f3577b34da6a3ce929d0e0e4736")
}

func TestRequestLog_RequestIDInContext(t *testing.T) {
	t.Parallel()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/lookup", http.NoBody)
	req.Header.Set(requestIDHeader, "lookup-7")
	rec := httptest.NewRecorder()

	var got string
	handler := RequestLog(slog.New(slog.DiscardHandler))(func(c echo.Context) error {
		got = RequestIDFrom(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(e.NewContext(req, rec)))
	assert.Equal(t, "lookup-7", got)
	assert.Empty(t, RequestIDFrom(t.Context()))
}
