package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

var sensitiveFields = []string{"password", "access_token", "token"}

const (
	// maxRequestBody bounds every request; the bulk returns upload is the
	// largest legitimate body.
	maxRequestBody = maxUpload
	maxJSONBody    = 1 << 20
)

// bodyCapture keeps the first maxAuditBody bytes the handler reads.
type bodyCapture struct {
	io.ReadCloser
	buf       bytes.Buffer
	truncated bool
}

func (b *bodyCapture) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if n > 0 && !b.truncated {
		room := maxAuditBody - b.buf.Len()
		if n <= room {
			b.buf.Write(p[:n])
		} else {
			b.buf.Write(p[:room])
			b.truncated = true
		}
	}
	return n, err
}

// String is the body as recorded in the audit log. A truncated body cannot be
// redacted reliably, so it is left out.
func (b *bodyCapture) String() string {
	if b.truncated {
		return fmt.Sprintf("[omitted: over %d bytes]", maxAuditBody)
	}
	return redact(b.buf.Bytes())
}

// auditLogMiddleware records every state-changing request together with
// the session that made it.
func (s *Server) auditLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		}
		if !audited(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		entry := &AuditLogEntry{
			Timestamp: time.Now().UTC(),
			Method:    r.Method,
			Path:      r.URL.Path,
			Handler:   getHandlerName(r),
		}
		entry.Action = entry.Handler

		var capture *bodyCapture
		if capturable(r.Header.Get("Content-Type")) && r.Body != nil {
			capture = &bodyCapture{ReadCloser: r.Body}
			r.Body = capture
		}

		wrw := newResponseWriterWrapper(w)

		next.ServeHTTP(wrw, r.WithContext(withAuditEntry(r.Context(), entry)))

		if capture != nil {
			entry.Request = capture.String()
		}
		entry.StatusCode = wrw.GetStatusCode()
		if wrw.Truncated() {
			entry.Response = fmt.Sprintf("[omitted: over %d bytes]", maxAuditBody)
		} else {
			entry.Response = redact(wrw.GetBody())
		}

		s.AuditManager.LogEntry(r.Context(), *entry)
	})
}

func audited(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func getHandlerName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if name := route.GetName(); name != "" {
			return name
		}
	}
	return "unknown"
}

func isTextual(contentType string) bool {
	return contentType == "" ||
		strings.Contains(contentType, "json") ||
		strings.HasPrefix(contentType, "text/")
}

// capturable reports whether a request body goes into the audit log; CSV
// uploads do not.
func capturable(contentType string) bool {
	return isTextual(contentType) && !strings.HasPrefix(contentType, "text/csv")
}

// redact blanks credentials in a JSON body. Non-JSON bodies are kept as is.
func redact(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(body, &obj); err != nil {
		return string(body)
	}
	changed := false
	for _, f := range sensitiveFields {
		if _, ok := obj[f]; ok {
			obj[f] = "***"
			changed = true
		}
	}
	if !changed {
		return string(body)
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return ""
	}
	return string(out)
}
