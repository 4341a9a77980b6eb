package router

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-credential-go/internal/user"
)

// statusRecorder wraps http.ResponseWriter to capture status and size for
// the logging and metrics middlewares.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *statusRecorder) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *statusRecorder) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

func (lrw *statusRecorder) code() int {
	if lrw.status == 0 {
		return http.StatusOK
	}
	return lrw.status
}

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			logger.Debugw("http request",
				"method", r.Method,
				"route", r.Pattern,
				"remote", r.RemoteAddr,
				"status", lrw.code(),
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Clickjacking protection
			w.Header().Set("X-Frame-Options", "DENY")

			// reset links carry a token in the path
			w.Header().Set("Referrer-Policy", "no-referrer")
			w.Header().Set("Cache-Control", "no-store")

			// Permissions policy (formerly Feature-Policy) - tighten common features
			// allow none for camera, microphone, geolocation by default
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

			// JSON API: nothing should ever render
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			}

			// HSTS - instruct browsers to use HTTPS for future requests. Only set if request is over TLS.
			if r.TLS != nil {
				// 30 days by default
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Config holds router settings read from the environment.
type Config struct {
	AllowedOrigins []string
}

// ConfigFromEnv reads CORS_ALLOWED_ORIGINS as a comma separated list.
func ConfigFromEnv() Config {
	raw := os.Getenv("CORS_ALLOWED_ORIGINS")
	if raw == "" {
		raw = "http://localhost:3000"
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return Config{AllowedOrigins: origins}
}

// RegisterRoutes mounts the credential endpoints under /api/user plus
// /metrics on a standard library http.ServeMux.
func RegisterRoutes(logger *zap.SugaredLogger, users *user.Handler, auth Authenticator, reg *prometheus.Registry, cfg Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/user/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// public
	mux.HandleFunc("POST /api/user/register", users.Register)
	mux.HandleFunc("POST /api/user/login", users.Login)
	mux.HandleFunc("POST /api/user/send-reset-password-email", users.SendResetPasswordEmail)
	mux.HandleFunc("POST /api/user/reset-password/{id}/{token}", users.ResetPassword)

	// protected
	mux.Handle("POST /api/user/changepassword", Authenticated(auth, logger, users.ChangePassword))
	mux.Handle("GET /api/user/loggeduser", Authenticated(auth, logger, users.LoggedUser))

	metrics := NewMetrics(reg)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	// metrics sits inside the others so it sees the matched route pattern
	handler := metrics.Middleware(mux)
	handler = SecurityHeadersMiddleware()(handler)
	handler = LoggingMiddleware(logger)(handler)
	return c.Handler(handler)
}
