package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePattern(t *testing.T) {
	t.Parallel()

	end := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		raw     string
		want    Pattern
		wantErr error
	}{
		{
			name: "weekly",
			raw:  `{"type":"weekly","interval":2}`,
			want: Pattern{Frequency: Weekly, Interval: 2},
		},
		{
			name: "capitalised type with limits",
			raw:  `{"type":"Monthly","interval":1,"endDate":"2025-12-31T00:00:00Z","maxOccurrences":6}`,
			want: Pattern{Frequency: Monthly, Interval: 1, EndDate: &end, MaxOccurrences: intPtr(6)},
		},
		{name: "empty", raw: "  ", wantErr: ErrEmptyPattern},
		{name: "not json", raw: "every tuesday", wantErr: ErrMalformedPattern},
		{name: "unknown type", raw: `{"type":"fortnightly","interval":1}`, wantErr: ErrUnknownFrequency},
		{name: "zero interval", raw: `{"type":"daily","interval":0}`, wantErr: ErrInvalidInterval},
		{name: "missing interval", raw: `{"type":"daily"}`, wantErr: ErrInvalidInterval},
		{name: "zero max", raw: `{"type":"daily","interval":1,"maxOccurrences":0}`, wantErr: ErrInvalidMaxOccurrences},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePattern(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Frequency, got.Frequency)
			assert.Equal(t, tt.want.Interval, got.Interval)
			if tt.want.EndDate != nil {
				require.NotNil(t, got.EndDate)
				assert.True(t, tt.want.EndDate.Equal(*got.EndDate))
			}
			assert.Equal(t, tt.want.MaxOccurrences, got.MaxOccurrences)
		})
	}
}

func intPtr(v int) *int { return &v }
