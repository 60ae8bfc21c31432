package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/otpdash/internal/pkg/config"
	"github.com/shandysiswandi/otpdash/internal/pkg/instrument"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	maxLoggedBodyBytes = 16 * 1024
	masked             = "***"
)

// alwaysMasked headers carry the session token and never reach the logs.
var alwaysMasked = []string{"cookie", "set-cookie", "authorization"}

type masker struct {
	keys map[string]struct{}
}

func newMasker(cfg config.Config) masker {
	m := masker{keys: make(map[string]struct{})}
	for _, k := range alwaysMasked {
		m.keys[k] = struct{}{}
	}
	if cfg != nil {
		for _, field := range cfg.GetArray("instrument.log_mask_fields") {
			m.keys[strings.ToLower(field)] = struct{}{}
		}
	}
	return m
}

func (m masker) hides(key string) bool {
	_, ok := m.keys[strings.ToLower(key)]
	return ok
}

func (m masker) header(h http.Header) http.Header {
	out := h.Clone()
	for key := range out {
		if m.hides(key) {
			out.Set(key, masked)
		}
	}
	return out
}

func (m masker) value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if m.hides(k) {
				out[k] = masked
				continue
			}
			out[k] = m.value(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = m.value(inner)
		}
		return out
	default:
		return v
	}
}

// body renders a captured body for the log: JSON and urlencoded forms are
// decoded and masked, other text is kept, binary is omitted.
func (m masker) body(contentType string, b []byte) any {
	if len(b) == 0 {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(b, &decoded); err == nil {
		return m.value(decoded)
	}

	if strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded") {
		if values, err := url.ParseQuery(string(b)); err == nil {
			out := make(map[string]any, len(values))
			for k, v := range values {
				if m.hides(k) {
					out[k] = masked
				} else {
					out[k] = strings.Join(v, ",")
				}
			}
			return out
		}
	}

	if !utf8.Valid(b) {
		return "<binary body omitted>"
	}
	return string(b)
}

// responseRecorder remembers the status, the size and, when capture is
// set, the first maxLoggedBodyBytes of the body.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	bytes   int
	capture *bytes.Buffer
	err     error
}

func (w *responseRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if w.capture != nil {
		if room := maxLoggedBodyBytes - w.capture.Len(); room > 0 {
			w.capture.Write(p[:min(room, len(p))])
		}
	}

	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

// SetError lets the router attach the handler error to the span.
func (w *responseRecorder) SetError(err error) {
	w.err = err
}

func (w *responseRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *responseRecorder) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

// peekBody reads up to maxLoggedBodyBytes and puts them back in front of the
// remaining body so handlers still see the full payload.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	//nolint:errcheck // best effort for logging only
	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(head), r.Body))
	return head
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	mask := newMasker(cfg)
	logResponse := cfg != nil && cfg.GetBool("instrument.log_response_body")
	tracer := ins.Tracer("http.server")
	meter := ins.Meter("http.server")

	requests, err := meter.Int64Counter("http.server.requests", metric.WithDescription("Number of HTTP requests received"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}
	duration, err := meter.Float64Histogram("http.server.duration", metric.WithDescription("HTTP request duration in milliseconds"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			start := time.Now()

			parent := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(parent, r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
				),
			)
			defer span.End()

			slog.InfoContext(ctx, "request received",
				"method", r.Method,
				"path", route,
				"uri", r.RequestURI,
				"remote_ip", r.RemoteAddr,
				"headers", mask.header(r.Header),
				"body", mask.body(r.Header.Get("Content-Type"), peekBody(r)),
			)

			rec := &responseRecorder{ResponseWriter: w}
			if logResponse {
				rec.capture = &bytes.Buffer{}
			}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.statusCode()
			elapsed := time.Since(start)
			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			}

			span.SetAttributes(attrs...)
			span.SetAttributes(
				semconv.ServerAddressKey.String(r.Host),
				attribute.String("http.user_agent", r.UserAgent()),
				attribute.Int("http.response_content_length", rec.bytes),
			)
			if rec.err != nil {
				span.RecordError(rec.err)
			}
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			} else {
				span.SetStatus(codes.Ok, "")
			}

			if requests != nil {
				requests.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			if duration != nil {
				duration.Record(ctx, float64(elapsed.Milliseconds()), metric.WithAttributes(attrs...))
			}

			logAttrs := []any{
				"method", r.Method,
				"path", route,
				"status", status,
				"bytes", rec.bytes,
				"latency_ms", elapsed.Milliseconds(),
			}
			if location := rec.Header().Get("Location"); location != "" {
				logAttrs = append(logAttrs, "location", location)
			}
			if rec.err != nil {
				logAttrs = append(logAttrs, "error", rec.err)
			}
			if rec.capture != nil {
				logAttrs = append(logAttrs, "body", mask.body(rec.Header().Get("Content-Type"), rec.capture.Bytes()))
			}
			slog.Log(ctx, levelFor(status), "response sent", logAttrs...)
		})
	}
}
