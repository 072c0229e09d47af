package homework

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	KeyHomeworks    = "homeworks"
	KeyCurrentDate  = "current_date"
	KeyHomeworkName = "homework_name"
	KeyStatus       = "status"
)

// Payload is a decoded API response body before shape validation.
// Values stay raw so presence, nullness and type can be checked separately.
type Payload map[string]json.RawMessage

// Submission is one homework record from the "homeworks" array.
type Submission map[string]json.RawMessage

// DecodePayload parses body as a JSON object.
func DecodePayload(body []byte) (Payload, error) {
	if kind(body) != '{' {
		return nil, fmt.Errorf("%w: body is not a JSON object", ErrMalformedPayload)
	}
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return p, nil
}

// CheckResponse validates the response shape and returns the submissions,
// newest first as reported by the API. Presence is always checked before access.
func CheckResponse(p Payload) ([]Submission, error) {
	raw, ok := p[KeyHomeworks]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyMissing, KeyHomeworks)
	}
	if kind(raw) == 'n' {
		return nil, fmt.Errorf("%w: %q is null", ErrShapeInvalid, KeyHomeworks)
	}
	if _, ok := p[KeyCurrentDate]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyMissing, KeyCurrentDate)
	}
	if k := kind(raw); k != '[' {
		return nil, fmt.Errorf("%w: %q must be a list, got %s", ErrTypeInvalid, KeyHomeworks, kindName(k))
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrTypeInvalid, KeyHomeworks, err)
	}
	out := make([]Submission, 0, len(items))
	for i, it := range items {
		if k := kind(it); k != '{' {
			return nil, fmt.Errorf("%w: %s[%d] must be an object, got %s", ErrTypeInvalid, KeyHomeworks, i, kindName(k))
		}
		var s Submission
		if err := json.Unmarshal(it, &s); err != nil {
			return nil, fmt.Errorf("%w: %s[%d]: %v", ErrTypeInvalid, KeyHomeworks, i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// CurrentDate returns the server timestamp used as the next cursor.
func (p Payload) CurrentDate() (int64, error) {
	raw, ok := p[KeyCurrentDate]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrKeyMissing, KeyCurrentDate)
	}
	if k := kind(raw); k != '0' {
		return 0, fmt.Errorf("%w: %q must be an integer, got %s", ErrTypeInvalid, KeyCurrentDate, kindName(k))
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrTypeInvalid, KeyCurrentDate, err)
	}
	v, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %q must be an integer, got %s", ErrTypeInvalid, KeyCurrentDate, n)
	}
	return v, nil
}

func (s Submission) str(key string) (string, error) {
	raw, ok := s[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrKeyMissing, key)
	}
	if k := kind(raw); k != '"' {
		return "", fmt.Errorf("%w: %q must be a string, got %s", ErrTypeInvalid, key, kindName(k))
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrTypeInvalid, key, err)
	}
	return v, nil
}

// Name returns the homework_name field.
func (s Submission) Name() (string, error) { return s.str(KeyHomeworkName) }

// Status returns the raw status field; it is not checked against the enumeration.
func (s Submission) Status() (Status, error) {
	v, err := s.str(KeyStatus)
	return Status(v), err
}

// kind classifies a raw JSON value by its first significant byte:
// '{', '[', '"', 'n' (null), 't'/'f' (bool), '0' (number) or 0 (empty).
func kind(raw []byte) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	switch c := raw[0]; c {
	case '{', '[', '"', 'n', 't', 'f':
		return c
	default:
		if c == '-' || (c >= '0' && c <= '9') {
			return '0'
		}
		return 0
	}
}

func kindName(k byte) string {
	switch k {
	case '{':
		return "object"
	case '[':
		return "list"
	case '"':
		return "string"
	case 'n':
		return "null"
	case 't', 'f':
		return "bool"
	case '0':
		return "number"
	default:
		return "nothing"
	}
}
