package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/bank-portal/internal/auth"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// principalSlot lets the gate, which runs inside Logging, report who called.
type principalSlot struct {
	p  auth.Principal
	ok bool
}

type slotKey struct{}

// Logging writes one access-log line per request.
func Logging(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		slot := &principalSlot{}
		r = r.WithContext(contextWithSlot(r.Context(), slot))

		next.ServeHTTP(rec, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		}
		if slot.ok {
			fields = append(fields, zap.String("principal_id", slot.p.ID), zap.String("role", string(slot.p.Role)))
		}
		log.Info("http request", fields...)
	})
}
