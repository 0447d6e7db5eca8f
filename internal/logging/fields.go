// Package logging defines the standard structured log field names used
// across the gateway so every component emits consistent keys.
package logging

const (
	FieldRequestID  = "request_id"
	FieldTraceID    = "trace_id"
	FieldMethod     = "method"
	FieldURL        = "url"
	FieldEndpoint   = "endpoint"
	FieldRoute      = "route"
	FieldUpstream   = "upstream"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldRemoteIP   = "remote_ip"
	FieldUserAgent  = "user_agent"
	FieldSize       = "size_bytes"
	FieldErrorCode  = "error_code"
	FieldUserID     = "user_id"
	FieldEmail      = "email"
	FieldGroupID    = "group_id"
	FieldCount      = "count"
)
