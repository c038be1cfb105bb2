// Package model defines shared types for the weather proxy.
package model

import "encoding/json"

// UpstreamReply is a fully buffered response from WeatherAPI.
type UpstreamReply struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the upstream answered with a 2xx status.
func (r *UpstreamReply) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// UpstreamErrorEnvelope mirrors the error document WeatherAPI returns on
// non-2xx statuses: {"error": {"code": 1006, "message": "..."}}.
type UpstreamErrorEnvelope struct {
	Error *UpstreamError `json:"error"`
}

// UpstreamError carries the provider's own error code and message. Code is
// kept as decoded (json.Number or string) so it can be echoed back verbatim.
type UpstreamError struct {
	Code    any    `json:"code"`
	Message string `json:"message"`
}

// ProxyResult is the complete answer the proxy sends to its caller. Body is
// already-serialized JSON.
type ProxyResult struct {
	StatusCode int
	Body       []byte
}

// ErrorBody is the JSON envelope for every error the proxy produces itself.
type ErrorBody struct {
	Error   string `json:"error"`
	Code    any    `json:"code,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Example string `json:"example,omitempty"`
}

// NewResult marshals v and wraps it with the given status. Marshalling an
// ErrorBody cannot fail, so the error from json.Marshal is ignored.
func NewResult(status int, v any) *ProxyResult {
	b, _ := json.Marshal(v)
	return &ProxyResult{StatusCode: status, Body: b}
}
