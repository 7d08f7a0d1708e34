package results

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/arena/internal/arbiter"
	"github.com/dyluth/arena/internal/resolver"
	"github.com/dyluth/arena/pkg/ledger"
	"github.com/dyluth/arena/pkg/stratego"
)

func setupLedger(t *testing.T) (*ledger.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client, err := ledger.NewClient(&redis.Options{Addr: mr.Addr()}, "test")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func record(red, blue string, redWins bool, createdAt int64) *ledger.MatchRecord {
	r := &ledger.MatchRecord{
		ID:            uuid.NewString(),
		RedName:       red,
		BlueName:      blue,
		Winner:        blue,
		WinnerColor:   "BLUE",
		Outcome:       "SURRENDER",
		Turns:         12,
		RedRemaining:  38,
		BlueRemaining: 40,
		Transcript:    "RED " + red + "\n",
		CreatedAtMs:   createdAt,
	}
	if redWins {
		r.Winner, r.WinnerColor, r.Outcome = red, "RED", "VICTORY_FLAG"
	}
	return r
}

func TestListMatches(t *testing.T) {
	ctx := context.Background()

	t.Run("empty ledger", func(t *testing.T) {
		client, _ := setupLedger(t)
		var out, warn bytes.Buffer
		require.NoError(t, ListMatches(ctx, client, OutputFormatDefault, nil, &out, &warn))
		assert.Contains(t, out.String(), "No matches found in namespace 'test'")
	})

	client, mr := setupLedger(t)
	now := time.Now().UnixMilli()
	old := record("alpha", "beta", true, now-int64(time.Hour/time.Millisecond))
	recent := record("gamma", "alpha", false, now)
	require.NoError(t, client.SaveMatch(ctx, old))
	require.NoError(t, client.SaveMatch(ctx, recent))
	mr.HSet(ledger.MatchKey("test", uuid.NewString()), "turns", "bad")

	t.Run("table", func(t *testing.T) {
		var out, warn bytes.Buffer
		require.NoError(t, ListMatches(ctx, client, OutputFormatDefault, nil, &out, &warn))
		text := out.String()
		assert.Contains(t, text, old.ID[:8])
		assert.Contains(t, text, recent.ID[:8])
		assert.Contains(t, text, "alpha (RED)")
		assert.Contains(t, text, "38-40")
		assert.Contains(t, text, "2 matches found")
		assert.Less(t, strings.Index(text, old.ID[:8]), strings.Index(text, recent.ID[:8]), "oldest first")
		assert.Contains(t, warn.String(), "Skipping malformed match")
	})

	t.Run("jsonl with filters", func(t *testing.T) {
		var out, warn bytes.Buffer
		filters := &FilterCriteria{Bot: "gamma"}
		require.NoError(t, ListMatches(ctx, client, OutputFormatJSONL, filters, &out, &warn))
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 1)
		var got ledger.MatchRecord
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
		assert.Equal(t, recent.ID, got.ID)
		assert.Empty(t, got.Transcript, "listings omit transcripts")
	})

	t.Run("time and outcome filters", func(t *testing.T) {
		var out, warn bytes.Buffer
		filters := &FilterCriteria{UntilTimestampMs: now - 1000, Outcome: "VICTORY_FLAG"}
		require.NoError(t, ListMatches(ctx, client, OutputFormatJSONL, filters, &out, &warn))
		assert.Contains(t, out.String(), old.ID)
		assert.NotContains(t, out.String(), recent.ID)

		out.Reset()
		filters = &FilterCriteria{SinceTimestampMs: now - 1000}
		require.NoError(t, ListMatches(ctx, client, OutputFormatJSONL, filters, &out, &warn))
		assert.NotContains(t, out.String(), old.ID)
	})

	t.Run("unknown format", func(t *testing.T) {
		var out, warn bytes.Buffer
		err := ListMatches(ctx, client, OutputFormat("xml"), nil, &out, &warn)
		assert.ErrorContains(t, err, "unknown output format")
	})
}

func TestGetMatch(t *testing.T) {
	ctx := context.Background()
	client, _ := setupLedger(t)
	r := record("alpha", "beta", true, 1)
	require.NoError(t, client.SaveMatch(ctx, r))

	var out bytes.Buffer
	require.NoError(t, GetMatch(ctx, client, r.ID[:8], false, &out))
	var got ledger.MatchRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, *r, got)

	out.Reset()
	require.NoError(t, GetMatch(ctx, client, r.ID, true, &out))
	assert.Equal(t, r.Transcript, out.String())

	err := GetMatch(ctx, client, uuid.NewString(), false, &out)
	assert.True(t, resolver.IsNotFoundError(err))
}

func TestRecordFromResult(t *testing.T) {
	res := &arbiter.Result{
		MatchID:       uuid.NewString(),
		Winner:        stratego.BLUE,
		WinnerName:    "beta",
		Loser:         stratego.RED,
		Outcome:       "ILLEGAL",
		Reason:        arbiter.ReasonMalformed,
		Turns:         3,
		RedRemaining:  40,
		BlueRemaining: 39,
	}
	ended := time.UnixMilli(1700000000000)
	r := RecordFromResult(res, "alpha", "beta", "text", ended)
	require.NoError(t, r.Validate())
	assert.Equal(t, "BLUE", r.WinnerColor)
	assert.Equal(t, "alpha", r.Loser())
	assert.Equal(t, int64(1700000000000), r.CreatedAtMs)
}

func TestFormatTimestamp(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "-", formatTimestamp(0))
	assert.Equal(t, "5m ago", formatTimestamp(now.Add(-5*time.Minute-time.Second).UnixMilli()))
	assert.Equal(t, "3h ago", formatTimestamp(now.Add(-3*time.Hour-time.Second).UnixMilli()))
	assert.Equal(t, "2d ago", formatTimestamp(now.Add(-49*time.Hour).UnixMilli()))
}
