package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// The access log carries real customer traffic for a pharmacy, so the
// path, query, and sensitive headers are redacted before being logged.
// Order matters: emails first (so phone masking does not split the
// local part), then phone numbers, then UUIDs.
var (
	reEmail = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	rePhone = regexp.MustCompile(`\+?\d[\d\- ]{7,}\d`)
	reUUID  = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
)

// maskedHeaders are never logged verbatim.
var maskedHeaders = map[string]struct{}{
	"authorization": {},
	"cookie":        {},
	"set-cookie":    {},
	"cn-api-key":    {},
	"x-api-key":     {},
}

// Redact masks emails, phone numbers, and UUIDs in s.
func Redact(s string) string {
	s = reEmail.ReplaceAllString(s, "[email]")
	s = rePhone.ReplaceAllString(s, "[phone]")
	s = reUUID.ReplaceAllString(s, "[uuid]")
	return s
}

// HeaderValue returns the loggable form of an HTTP header value,
// masking credentials entirely and redacting PII elsewhere.
func HeaderValue(name, value string) string {
	if _, ok := maskedHeaders[strings.ToLower(name)]; ok {
		return "[masked]"
	}
	return Redact(value)
}

// RedactingLogger is the access logger: one structured line per
// request with latency, status, and a PII-redacted path.
func RedactingLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		rawQuery := c.Request.URL.RawQuery

		c.Next()

		if rawQuery != "" {
			path = path + "?" + rawQuery
		}

		ev := log.Info()
		if c.Writer.Status() >= 500 {
			ev = log.Error()
		} else if c.Writer.Status() >= 400 {
			ev = log.Warn()
		}
		ev.
			Str("method", c.Request.Method).
			Str("path", Redact(path)).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(requestIDKey)).
			Int("bytes_out", c.Writer.Size()).
			Msg("http request")
	}
}
