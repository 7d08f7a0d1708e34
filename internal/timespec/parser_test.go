package timespec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	now := time.Date(2025, 10, 29, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		spec string
		want time.Time
	}{
		{"1h30m", now.Add(-90 * time.Minute)},
		{" 45s ", now.Add(-45 * time.Second)},
		{"2d", now.Add(-48 * time.Hour)},
		{"2025-10-28T09:15:00Z", time.Date(2025, 10, 28, 9, 15, 0, 0, time.UTC)},
		{"2025-10-01", time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := Parse(tt.spec, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want.UnixMilli(), got)
		})
	}

	for _, bad := range []string{"", "yesterday", "-1h", "xd", "2025-13-01"} {
		_, err := Parse(bad, now)
		assert.Error(t, err, bad)
	}
}

func TestParseRange(t *testing.T) {
	now := time.Date(2025, 10, 29, 12, 0, 0, 0, time.UTC)

	since, until, err := ParseRange("2h", "1h", now)
	require.NoError(t, err)
	assert.Less(t, since, until)

	since, until, err = ParseRange("", "", now)
	require.NoError(t, err)
	assert.Zero(t, since)
	assert.Zero(t, until)

	_, _, err = ParseRange("1h", "2h", now)
	assert.ErrorContains(t, err, "--since must be before --until")

	_, _, err = ParseRange("nope", "", now)
	assert.ErrorContains(t, err, "invalid --since")
}
