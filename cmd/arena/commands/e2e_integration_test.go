//go:build integration

package commands

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/arena/internal/codec"
	"github.com/dyluth/arena/internal/testutil"
)

// TestE2E_RandbotMatchIsRecordedAndReplayable plays two compiled randbots
// against a real Redis and reads the match back through every CLI surface.
func TestE2E_RandbotMatchIsRecordedAndReplayable(t *testing.T) {
	isolateEnv(t)
	env := testutil.SetupE2EEnvironment(t)
	randbot := env.BuildCommand("randbot")
	env.WriteFile("arena.yml", testutil.RandbotArenaYML(randbot))

	t.Setenv("ARENA_REDIS_URL", env.RedisURL)
	t.Setenv("ARENA_NAMESPACE", env.Namespace)

	out, errOut, err := execute(t, "play", "--log-level", "warn")
	require.NoError(t, err, errOut)
	assert.Contains(t, out, "randbot-red (RED) vs randbot-blue (BLUE)")
	assert.Contains(t, out, "Recorded match")

	transcript := env.VerifyFileContent("game.log", "RED randbot-red\n")
	records := env.WaitForMatches(1)
	r := records[0]
	assert.Equal(t, transcript, r.Transcript)
	assert.Contains(t, []string{"randbot-red", "randbot-blue"}, r.Winner)
	lines := strings.Split(strings.TrimSpace(transcript), "\n")
	res, ok := codec.ParseResultLine(lines[len(lines)-1])
	require.True(t, ok, "transcript ends with a result line")
	assert.Equal(t, r.Winner, res.Winner)
	assert.Equal(t, r.WinnerColor, res.Color.String())
	assert.Equal(t, r.Turns, res.Turns)

	t.Run("results", func(t *testing.T) {
		out, _, err := execute(t, "results", r.ID[:8])
		require.NoError(t, err)
		assert.Contains(t, out, r.ID)
	})

	t.Run("replay", func(t *testing.T) {
		out, errOut, err := execute(t, "replay", "game.log", "--verify")
		require.NoError(t, err, errOut)
		assert.Contains(t, out, "Replay verified")
	})
}
