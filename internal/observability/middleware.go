package observability

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const wellKnownNI = "/.well-known/ni/"

// HTTPMiddleware starts one server span per request, parented on any
// incoming traceparent header. Well-known ni requests are named by route and
// carry the requested identifier as an attribute.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		name := r.URL.Path
		rest, isNI := strings.CutPrefix(name, wellKnownNI)
		if isNI {
			name = wellKnownNI + "{alg}/{id}"
		}

		ctx, span := StartServerSpan(ctx, r.Method+" "+name,
			semconv.HTTPRequestMethodKey.String(r.Method),
			semconv.URLPath(r.URL.Path),
			semconv.ServerAddress(r.Host),
			semconv.UserAgentOriginal(r.UserAgent()),
		)
		defer span.End()

		if isNI {
			if _, id, ok := strings.Cut(rest, "/"); ok {
				span.SetAttributes(AttrIdentifier.String(id))
			}
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		span.SetAttributes(
			semconv.HTTPResponseStatusCode(rec.status),
			AttrBytes.Int64(rec.written),
		)
		if rec.status >= 500 {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.written += int64(n)
	return n, err
}
