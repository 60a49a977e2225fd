package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidNumber = errors.New("value is not a number")

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Float accepts a finite JSON number or a string holding one.
func Float(raw json.RawMessage) (float64, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, ErrInvalidNumber
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, ErrInvalidNumber
	}
	return n, nil
}

// Price is Float restricted to non-negative values.
func Price(raw json.RawMessage) (float64, error) {
	n, err := Float(raw)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, ErrInvalidNumber
	}
	return n, nil
}

// Int accepts integral JSON numbers only.
func Int(raw json.RawMessage) (int, bool) {
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	if n != float64(int(n)) {
		return 0, false
	}
	return int(n), true
}

// Bool applies JSON truthiness: false, null, 0, "" and empty containers are false.
func Bool(raw json.RawMessage) bool {
	if isNull(raw) {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return false
}

// String returns JSON strings as-is, null as "", and any other value as its JSON text.
func String(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

// MergeExtra shallow-merges fields into the JSON object held in extra.
func MergeExtra(extra string, fields map[string]json.RawMessage) (string, error) {
	merged := map[string]json.RawMessage{}
	if extra != "" {
		if err := json.Unmarshal([]byte(extra), &merged); err != nil {
			return "", err
		}
	}
	if len(fields) == 0 && len(merged) == 0 {
		return "", nil
	}
	for k, v := range fields {
		if len(v) == 0 {
			v = json.RawMessage("null")
		}
		merged[k] = v
	}
	out, err := marshalNoEscape(merged)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
