package biztime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		n    int
		want time.Time
	}{
		{
			name: "regular month",
			in:   time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC),
			n:    1,
			want: time.Date(2025, 4, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name: "end of january clamps to february",
			in:   time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC),
			n:    1,
			want: time.Date(2025, 2, 28, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "leap year february",
			in:   time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC),
			n:    1,
			want: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "crosses year boundary",
			in:   time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC),
			n:    1,
			want: time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(AddMonthsClamped(tt.in, tt.n)), "got %s", AddMonthsClamped(tt.in, tt.n))
		})
	}
}

func TestStartOfMonthUTC(t *testing.T) {
	got := StartOfMonthUTC(time.Date(2025, 5, 17, 13, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), got)
}
