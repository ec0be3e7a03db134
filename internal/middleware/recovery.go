package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// PanicHandler is a function that handles panics and writes an error response
type PanicHandler func(w http.ResponseWriter, r *http.Request, err any)

// Recovery creates panic recovery middleware with a custom panic handler.
// The handler only runs while the response is still uncommitted; a panic
// after a websocket upgrade or a partial write is logged and dropped.
func Recovery(logger *slog.Logger, handler PanicHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw, ok := w.(*ResponseWriter)
			if !ok {
				rw = &ResponseWriter{ResponseWriter: w, status: http.StatusOK}
			}

			defer func() {
				if err := recover(); err != nil {
					// Deliberate aborts must reach net/http untouched
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic recovered",
						slog.Any("error", err),
						slog.String("stack", string(debug.Stack())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.Bool("upgraded", rw.hijacked),
					)

					if rw.Committed() {
						return
					}
					handler(rw, r, err)
				}
			}()

			next.ServeHTTP(rw, r)
		})
	}
}
