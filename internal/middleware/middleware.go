package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Recovery turns a handler panic into a 500 and logs it at error level.
func Recovery(next http.Handler) http.Handler {
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelError)),
		handlers.PrintRecoveryStack(false),
	)(next)
}

// Logger logs one line per request once it completes.
func Logger(next http.Handler) http.Handler {
	return handlers.CustomLoggingHandler(io.Discard, next, logRequest)
}

func logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	slog.Info("request",
		"method", p.Request.Method,
		"path", p.URL.Path,
		"status", p.StatusCode,
		"size", p.Size,
		"duration", time.Since(p.TimeStamp),
	)
}

// CORS admits browser calls from origins whose host matches one of
// patterns, using the same path.Match syntax as the websocket origin check.
// Allowed preflights are answered with 204.
func CORS(patterns []string) mux.MiddlewareFunc {
	return mux.MiddlewareFunc(handlers.CORS(
		handlers.AllowedOriginValidator(func(origin string) bool {
			return originAllowed(origin, patterns)
		}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.OptionStatusCode(http.StatusNoContent),
	))
}

func originAllowed(origin string, patterns []string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Host)
	for _, p := range patterns {
		if ok, _ := path.Match(strings.ToLower(p), host); ok {
			return true
		}
	}
	return false
}
