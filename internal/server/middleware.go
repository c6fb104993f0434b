package server

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sitesurvey/camplan/internal/api"
)

// RequestRecorder receives one sample per served request. influx.Manager
// satisfies it.
type RequestRecorder interface {
	RecordRequest(method, route string, status int, d time.Duration)
}

// statusWriter captures the response status. It forwards Hijack so the
// stream endpoint can upgrade through it.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.status = code
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	conn, rw, err := http.NewResponseController(w.ResponseWriter).Hijack()
	if err != nil {
		return nil, nil, err
	}
	// a hijacked connection is reported as a protocol switch
	w.status = http.StatusSwitchingProtocols
	w.wroteHeader = true
	return conn, rw, nil
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// cors allows every origin, matching the browser client served from any host.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Accept, "+api.KeyHeader)
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireKey rejects writes to /api/ and stream connections that do not
// carry key in the X-API-Key header or the secret query parameter. Reads
// and static files stay open. An empty key disables the check.
func requireKey(key string, next http.Handler) http.Handler {
	if key == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if needsKey(r) {
			got := r.Header.Get(api.KeyHeader)
			if got == "" {
				got = r.URL.Query().Get("secret")
			}
			if got != key {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func needsKey(r *http.Request) bool {
	if !strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	if r.URL.Path == "/api/stream" {
		return true
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// observe logs every request and feeds the Prometheus and InfluxDB
// recorders. It must wrap the mux directly: the matched route pattern is
// read back from the request after the mux has served it.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		d := time.Since(start)
		s.requests.Add(1)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}

		if r.URL.Path == "/api/health" {
			s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", sw.status)
			return
		}
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", sw.status,
			"duration", d,
		)
		s.metrics.ObserveRequest(r.Method, route, strconv.Itoa(sw.status), d.Seconds())
		if s.recorder != nil {
			s.recorder.RecordRequest(r.Method, route, sw.status, d)
		}
	})
}
