package typeutil

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var _json = jsoniter.ConfigCompatibleWithStandardLibrary

// Duration is a time.Duration that is a number of whole seconds in JSON and a duration string in text.
type Duration struct {
	time.Duration
}

// NewDuration creates a Duration from time.Duration.
func NewDuration(duration time.Duration) Duration {
	return Duration{Duration: duration}
}

// Seconds returns the duration truncated to whole seconds.
func (d Duration) Seconds() int64 {
	return int64(d.Duration / time.Second)
}

// MarshalJSON returns the duration as a number of seconds.
// Sub-second parts are dropped.
func (d Duration) MarshalJSON() ([]byte, error) {
	return _json.Marshal(d.Seconds())
}

// UnmarshalJSON parses a number of seconds or a duration string.
func (d *Duration) UnmarshalJSON(text []byte) error {
	var v interface{}
	if err := _json.Unmarshal(text, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value * float64(time.Second))
		return nil
	case string:
		duration, err := time.ParseDuration(value)
		if err != nil {
			return errors.WithMessage(err, "parse from string")
		}
		d.Duration = duration
		return nil
	default:
		return errors.Errorf("invalid duration %v", v)
	}
}

// MarshalText returns the duration as a string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.WithMessage(err, "parse duration from text")
	}
	d.Duration = duration
	return nil
}
