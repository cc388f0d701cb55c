package faceit

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// millisThreshold separates unix seconds from unix milliseconds.
const millisThreshold = 1e10

// Timestamp accepts the shapes FACEIT uses for match times: unix seconds,
// unix milliseconds, numeric strings and RFC3339 strings. Anything else
// decodes to the zero value instead of failing the whole payload.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			t.Time = fromUnix(n)
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			t.Time = parsed
		}
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		t.Time = fromUnix(n)
	}
	return nil
}

// MarshalJSON renders the time as RFC3339, or null when unset.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339))
}

// Ptr returns nil for the zero value.
func (t Timestamp) Ptr() *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

func fromUnix(n float64) time.Time {
	if n <= 0 {
		return time.Time{}
	}
	if n > millisThreshold {
		return time.UnixMilli(int64(n)).UTC()
	}
	return time.Unix(int64(n), 0).UTC()
}
