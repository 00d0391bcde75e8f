package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Envelope is the uniform response body returned by every ARCO API endpoint.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ErrNoData is returned by Decode when the envelope carries no data section.
var ErrNoData = errors.New("envelope has no data")

// HasData reports whether the envelope carries a non-null data section.
func (e *Envelope) HasData() bool {
	if e == nil {
		return false
	}
	trimmed := bytes.TrimSpace(e.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Decode unmarshals the data section into v.
func (e *Envelope) Decode(v any) error {
	if !e.HasData() {
		return ErrNoData
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode envelope data: %w", err)
	}
	return nil
}

// ParseEnvelope decodes a raw response body. Only a body that is not a JSON
// object fails; off-type success or message fields are read leniently so the
// server's text is not lost.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("parse envelope: %w", err)
	}
	if fields == nil {
		return nil, errors.New("parse envelope: body is null")
	}

	return &Envelope{
		Success: looseBool(fields["success"]),
		Message: looseMessage(fields["message"]),
		Data:    fields["data"],
	}, nil
}

// looseBool accepts a JSON boolean or a string such as "true" or "1".
func looseBool(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		v, _ := strconv.ParseBool(strings.TrimSpace(s))
		return v
	}
	return false
}

// looseMessage returns a string message as is, the nested "message" of an
// object, or the compact JSON text of any other non-null value.
func looseMessage(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &nested); err == nil && nested.Message != "" {
		return nested.Message
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return string(trimmed)
	}
	return compact.String()
}
