package bokun

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

// ErrNonJSONResponse is wrapped by TransportError when the body cannot be decoded
var ErrNonJSONResponse = errors.New("response body is not valid JSON")

// TransportError represents a network, timeout or decoding failure.
// Reads may be retried by the caller; mutating calls must not be.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("bokun transport error (%s %s): %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is returned when the response body carries both "message" and
// "fields", whatever the HTTP status was.
type APIError struct {
	Method  string
	URL     string
	Query   url.Values
	Headers map[string]string
	Body    interface{}

	Message string
	Fields  json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bokun api error: %s (%s %s)", e.Message, e.Method, e.URL)
}

// Details renders the full request context for diagnosis
func (e *APIError) Details() string {
	out, err := json.MarshalIndent(map[string]interface{}{
		"method":  e.Method,
		"url":     e.URL,
		"query":   e.Query,
		"headers": e.Headers,
		"body":    e.Body,
		"message": e.Message,
		"fields":  e.Fields,
	}, "", "  ")
	if err != nil {
		return e.Error()
	}
	return string(out)
}

// detectAPIError checks the decoded body shape. Only JSON objects can carry errors.
func detectAPIError(raw []byte) *APIError {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil
	}

	rawMessage, hasMessage := doc["message"]
	fields, hasFields := doc["fields"]
	if !hasMessage || !hasFields {
		return nil
	}

	return &APIError{
		Message: decodeMessage(rawMessage),
		Fields:  fields,
	}
}

// decodeMessage returns the message as text even when it is not a JSON string
func decodeMessage(raw json.RawMessage) string {
	var message string
	if err := json.Unmarshal(raw, &message); err == nil {
		return message
	}
	return string(raw)
}
