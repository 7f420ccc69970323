package oracle

import (
	"fmt"
	"net/http"
	"strings"
)

// classifyStatus maps a non-200 response to a failure kind with a readable
// message.
func classifyStatus(statusCode int, body []byte) *Failure {
	f := &Failure{Status: statusCode}
	switch statusCode {
	case http.StatusForbidden:
		f.Kind = Forbidden
		f.Message = "access denied — the oracle is rejecting requests (blocked or missing referer)"
	case http.StatusTooManyRequests:
		f.Kind = RateLimited
		f.Message = "rate limited — too many requests, slow down"
	default:
		f.Kind = Network
		f.Message = statusMessage(statusCode, body)
	}
	return f
}

func statusMessage(statusCode int, body []byte) string {
	switch statusCode {
	case http.StatusNotFound:
		return "endpoint not found (check oracle.base_url)"
	case http.StatusInternalServerError:
		return "internal server error on the oracle side"
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return "oracle temporarily unavailable"
	case http.StatusGatewayTimeout:
		return "oracle gateway timed out"
	}

	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return fmt.Sprintf("HTTP %d: %s", statusCode, s)
}

// friendlyError converts common network errors to user-friendly messages.
func friendlyError(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "connection refused") {
		return "connection refused (is the host reachable?)"
	}
	if strings.Contains(msg, "no such host") {
		return "host not found (check oracle.base_url)"
	}
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
		return "request timed out"
	}
	if strings.Contains(msg, "EOF") {
		return "connection closed unexpectedly"
	}
	if strings.Contains(msg, "reset by peer") {
		return "connection reset by server"
	}
	return msg
}
