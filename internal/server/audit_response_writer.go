package server

import (
	"bytes"
	"net/http"
)

// maxAuditBody caps how much of a response is kept for the audit log.
const maxAuditBody = 4 << 10

type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
	buffer     bytes.Buffer
	truncated  bool
}

func newResponseWriterWrapper(w http.ResponseWriter) *responseWriterWrapper {
	return &responseWriterWrapper{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriterWrapper) Write(b []byte) (int, error) {
	if room := maxAuditBody - w.buffer.Len(); room > 0 {
		if len(b) > room {
			w.buffer.Write(b[:room])
			w.truncated = true
		} else {
			w.buffer.Write(b)
		}
	} else if len(b) > 0 {
		w.truncated = true
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseWriterWrapper) GetStatusCode() int {
	return w.statusCode
}

// GetBody returns the captured body, or nothing for binary responses.
func (w *responseWriterWrapper) GetBody() []byte {
	if !isTextual(w.Header().Get("Content-Type")) {
		return nil
	}
	return w.buffer.Bytes()
}

func (w *responseWriterWrapper) Truncated() bool {
	return w.truncated
}
