package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/meghkala/api/internal/domain"
)

// Body size limits. The default covers every JSON endpoint; the large
// limit exists for the payment screenshot upload.
const (
	DefaultMaxBodySize int64 = 10 << 20
	LargeMaxBodySize   int64 = 50 << 20
)

// DefaultTimeout bounds request processing end to end.
const DefaultTimeout = 30 * time.Second

// MaxBodySize rejects bodies over the limit with 413 and caps reads on
// the rest, so a lying Content-Length cannot stream past the limit.
func MaxBodySize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.ContentLength > limit {
				respondWithError(w, r, domain.Errorf(domain.ETOOLARGE, "middleware.body_size", "Request body is too large"))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// Timeout cancels the request context after d and answers 503 when the
// handler has not started writing yet. A handler mid-response cannot be
// salvaged; the client sees a truncated body.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			done := make(chan struct{})
			dw := &deadlineWriter{ResponseWriter: w, done: done}

			go func() {
				defer close(done)
				next.ServeHTTP(dw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				dw.mu.Lock()
				defer dw.mu.Unlock()
				if !dw.wroteHeader {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusServiceUnavailable)
					w.Write([]byte(`{"error":{"code":"internal","message":"Request timed out"}}`))
				}
			}
		})
	}
}

// deadlineWriter suppresses writes that race the timeout response.
type deadlineWriter struct {
	http.ResponseWriter
	mu          sync.Mutex
	wroteHeader bool
	done        chan struct{}
}

func (dw *deadlineWriter) WriteHeader(code int) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.wroteHeader {
		return
	}
	select {
	case <-dw.done:
	default:
		dw.wroteHeader = true
		dw.ResponseWriter.WriteHeader(code)
	}
}

func (dw *deadlineWriter) Write(b []byte) (int, error) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	select {
	case <-dw.done:
		return 0, context.DeadlineExceeded
	default:
		if !dw.wroteHeader {
			dw.wroteHeader = true
			dw.ResponseWriter.WriteHeader(http.StatusOK)
		}
		return dw.ResponseWriter.Write(b)
	}
}
