package router

import "net/http"

// responseWriter wraps http.ResponseWriter and records whether a response
// has been started, so the error boundary never writes a second status
// line after a handler already produced output.
type responseWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w}
}

func (w *responseWriter) WriteHeader(status int) {
	if w.written {
		return
	}
	w.status = status
	w.written = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Written reports whether the status line has been sent.
func (w *responseWriter) Written() bool { return w.written }

// Status returns the status code sent to the client, or zero if none yet.
func (w *responseWriter) Status() int { return w.status }
