// internal/config/types.go
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Duration wraps time.Duration for text unmarshaling (YAML, env vars).
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("duration cannot be negative: %s", text)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration().String()), nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration().String())
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Dim is the hash fallback vector dimension.
//
// Unmarshaling never fails: integers are taken as-is, decimal text is
// truncated toward zero and anything else becomes 0. The embedding
// layer clamps the result to at least 1 at use.
type Dim int

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Dim) UnmarshalText(text []byte) error {
	*d = parseDim(string(text))
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Dim) MarshalText() ([]byte, error) {
	return []byte(strconv.Itoa(int(d))), nil
}

func parseDim(s string) Dim {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return Dim(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f > math.MaxInt32 {
		return Dim(math.MaxInt32)
	}
	if f < math.MinInt32 {
		return 0
	}
	return Dim(int(f))
}
