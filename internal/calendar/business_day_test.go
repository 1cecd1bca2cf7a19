package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chicago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	return loc
}

func TestResolve(t *testing.T) {
	loc := chicago(t)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "monday morning unchanged",
			in:   time.Date(2024, 1, 8, 9, 30, 15, 0, loc),
			want: time.Date(2024, 1, 8, 9, 30, 15, 0, loc),
		},
		{
			name: "thursday just before cutoff unchanged",
			in:   time.Date(2024, 1, 11, 16, 59, 59, 0, loc),
			want: time.Date(2024, 1, 11, 16, 59, 59, 0, loc),
		},
		{
			name: "weekday at cutoff rolls to next day",
			in:   time.Date(2024, 1, 10, 17, 0, 0, 0, loc),
			want: time.Date(2024, 1, 11, 8, 0, 0, 0, loc),
		},
		{
			name: "weekday after cutoff rolls to next day",
			in:   time.Date(2024, 1, 9, 22, 45, 0, 0, loc),
			want: time.Date(2024, 1, 10, 8, 0, 0, 0, loc),
		},
		{
			name: "friday before cutoff unchanged",
			in:   time.Date(2024, 1, 12, 12, 0, 0, 0, loc),
			want: time.Date(2024, 1, 12, 12, 0, 0, 0, loc),
		},
		{
			name: "friday at cutoff rolls to monday",
			in:   time.Date(2024, 1, 12, 17, 0, 0, 0, loc),
			want: time.Date(2024, 1, 15, 8, 0, 0, 0, loc),
		},
		{
			name: "saturday rolls to monday",
			in:   time.Date(2024, 1, 13, 3, 12, 0, 0, loc),
			want: time.Date(2024, 1, 15, 8, 0, 0, 0, loc),
		},
		{
			name: "sunday rolls to monday",
			in:   time.Date(2024, 1, 14, 23, 59, 0, 0, loc),
			want: time.Date(2024, 1, 15, 8, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.in, loc)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestResolveConvertsTimezone(t *testing.T) {
	loc := chicago(t)

	// 22:30 UTC on a Tuesday is 16:30 in Chicago, still before the cutoff.
	in := time.Date(2024, 1, 9, 22, 30, 0, 0, time.UTC)
	got := Resolve(in, loc)

	assert.Equal(t, loc, got.Location())
	assert.True(t, got.Equal(in))
	assert.Equal(t, 16, got.Hour())
}

func TestResolveRolloverSetsBusinessOpen(t *testing.T) {
	loc := chicago(t)

	got := Resolve(time.Date(2024, 1, 13, 10, 22, 33, 444, loc), loc)

	assert.Equal(t, 8, got.Hour())
	assert.Zero(t, got.Minute())
	assert.Zero(t, got.Second())
	assert.Zero(t, got.Nanosecond())
	assert.Equal(t, time.Monday, got.Weekday())
}
