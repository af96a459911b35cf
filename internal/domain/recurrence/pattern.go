package recurrence

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Frequency is the unit a recurrence pattern advances by.
type Frequency string

// Supported frequencies
const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// Pattern errors
var (
	ErrEmptyPattern          = errors.New("recurrence pattern is empty")
	ErrMalformedPattern      = errors.New("recurrence pattern is malformed")
	ErrUnknownFrequency      = errors.New("unknown recurrence frequency")
	ErrInvalidInterval       = errors.New("recurrence interval must be at least 1")
	ErrInvalidMaxOccurrences = errors.New("recurrence max occurrences must be at least 1")
)

// Pattern describes how often, and until when, a recurring task spawns occurrences.
type Pattern struct {
	Frequency      Frequency  `json:"type"`
	Interval       int        `json:"interval"`
	EndDate        *time.Time `json:"endDate,omitempty"`
	MaxOccurrences *int       `json:"maxOccurrences,omitempty"`
}

// ParsePattern decodes and validates the JSON form stored on a task definition.
func ParsePattern(raw string) (Pattern, error) {
	if strings.TrimSpace(raw) == "" {
		return Pattern{}, ErrEmptyPattern
	}

	var p Pattern
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Pattern{}, fmt.Errorf("%w: %v", ErrMalformedPattern, err)
	}
	p.Frequency = Frequency(strings.ToLower(strings.TrimSpace(string(p.Frequency))))

	if err := p.Validate(); err != nil {
		return Pattern{}, err
	}
	return p, nil
}

// Validate checks the pattern's fields.
func (p Pattern) Validate() error {
	if !p.Frequency.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFrequency, p.Frequency)
	}
	if p.Interval < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidInterval, p.Interval)
	}
	if p.MaxOccurrences != nil && *p.MaxOccurrences < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxOccurrences, *p.MaxOccurrences)
	}
	return nil
}

func (f Frequency) valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}
