package middleware

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/provider-discovery/internal/infrastructure/observability"
)

// ObservabilityMiddleware records request metrics and traces
func ObservabilityMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx, span := observability.StartSpan(r.Context(), r.Method+" "+r.URL.Path)
			defer span.End()

			observability.SetSpanAttributes(span,
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			)

			rw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(ctx))

			observability.SetSpanAttributes(span,
				attribute.Int("http.status_code", rw.statusCode),
			)

			if metrics != nil {
				observability.RecordRequestMetric(ctx, metrics, r.Method, r.URL.Path, rw.statusCode, time.Since(start))
			}
		})
	}
}
