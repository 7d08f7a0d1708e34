package commands

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/arena/internal/config"
	"github.com/dyluth/arena/pkg/ledger"
	"github.com/dyluth/arena/pkg/stratego"
)

// surrenderBot places the classic block, reads its first prompt (START plus
// ten board rows) and surrenders.
const surrenderBot = `#!/bin/sh
read header
printf 'FBBBBBB8s1\n2334445555\n6666777788\n8899999999\n'
i=0
while [ $i -lt 11 ]; do read line; i=$((i+1)); done
echo SURRENDER
cat >/dev/null
`

// idleBot places the classic block and then only listens.
const idleBot = `#!/bin/sh
read header
printf 'FBBBBBB8s1\n2334445555\n6666777788\n8899999999\n'
cat >/dev/null
`

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func writeBot(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// isolateEnv keeps the developer's ARENA_* settings out of a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ARENA_REDIS_URL", "ARENA_NAMESPACE", "ARENA_LOG_LEVEL", "ARENA_MOVE_TIMEOUT"} {
		t.Setenv(k, "")
	}
}

func TestPlayRecordsMatch(t *testing.T) {
	requireShell(t)
	isolateEnv(t)
	dir := t.TempDir()
	chdir(t, dir)

	mr := miniredis.RunT(t)
	t.Setenv("ARENA_REDIS_URL", "redis://"+mr.Addr())
	t.Setenv("ARENA_NAMESPACE", "cli")

	red := writeBot(t, dir, "red.sh", surrenderBot)
	blue := writeBot(t, dir, "blue.sh", idleBot)

	out, errOut, err := execute(t, "play", "--red", red, "--blue", blue, "--log", "match.log", "--log-level", "error")
	require.NoError(t, err, errOut)
	assert.Contains(t, out, "red.sh (RED) vs blue.sh (BLUE)")
	assert.Contains(t, out, "blue.sh (BLUE) wins by surrender after 0 turns [SURRENDER, remaining 40-40]")
	assert.Contains(t, out, "Transcript written to match.log")
	assert.Contains(t, out, "Recorded match")

	data, err := os.ReadFile("match.log")
	require.NoError(t, err)
	transcript := string(data)
	assert.True(t, strings.HasPrefix(transcript, "RED red.sh\nFBBBBBB8s1\n"))
	assert.True(t, strings.HasSuffix(transcript, "1 RED: SURRENDER\nblue.sh BLUE VICTORY 0 40 40\n"), transcript)

	client, err := ledger.NewClientFromURL("redis://"+mr.Addr(), "cli")
	require.NoError(t, err)
	defer client.Close()
	records, skipped, err := client.ListMatches(context.Background())
	require.NoError(t, err)
	require.Empty(t, skipped)
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, "blue.sh", r.Winner)
	assert.Equal(t, "BLUE", r.WinnerColor)
	assert.Equal(t, "SURRENDER", r.Outcome)
	assert.Equal(t, transcript, r.Transcript)

	t.Run("results lists the match", func(t *testing.T) {
		out, _, err := execute(t, "results", "--output", "jsonl", "--bot", "red.sh")
		require.NoError(t, err)
		assert.Contains(t, out, r.ID)
		assert.NotContains(t, out, "FBBBBBB8s1", "jsonl omits transcripts")
	})

	t.Run("results filters by outcome", func(t *testing.T) {
		out, _, err := execute(t, "results", "--outcome", "VICTORY_FLAG")
		require.NoError(t, err)
		assert.Contains(t, out, "No matches found in namespace 'cli'")
	})

	t.Run("results gets the transcript by short id", func(t *testing.T) {
		out, _, err := execute(t, "results", r.ID[:8], "--transcript")
		require.NoError(t, err)
		assert.Equal(t, transcript, out)
	})

	t.Run("results reports unknown id", func(t *testing.T) {
		_, errOut, err := execute(t, "results", "ffffffff")
		require.Error(t, err)
		assert.Contains(t, errOut, "match with ID 'ffffffff' not found")
	})

	t.Run("replay verifies the transcript", func(t *testing.T) {
		out, errOut, err := execute(t, "replay", "match.log", "--verify")
		require.NoError(t, err, errOut)
		assert.Contains(t, out, "red.sh (RED) vs blue.sh (BLUE)")
		assert.Contains(t, out, "80 actions: 80 placements, 0 turns")
		assert.Contains(t, out, "RED view:\n  FBBBBBB8s1\n")
		assert.Contains(t, out, "Remaining: RED 40, BLUE 40")
		assert.Contains(t, out, "Replay verified")
	})
}

func TestPlayRequiresSides(t *testing.T) {
	isolateEnv(t)
	chdir(t, t.TempDir())

	_, errOut, err := execute(t, "play", "--red", "./bot")
	require.Error(t, err)
	assert.Contains(t, errOut, "sides not configured")
	assert.Contains(t, errOut, "both red and blue must be configured")
}

func TestPlayMissingExplicitConfig(t *testing.T) {
	isolateEnv(t)
	chdir(t, t.TempDir())

	_, errOut, err := execute(t, "play", "--config", "nope.yml")
	require.Error(t, err)
	assert.Contains(t, errOut, "configuration file not found")
}

func TestPlayReportsBotThatCannotStart(t *testing.T) {
	requireShell(t)
	isolateEnv(t)
	dir := t.TempDir()
	chdir(t, dir)
	blue := writeBot(t, dir, "blue.sh", idleBot)

	_, errOut, err := execute(t, "play", "--red", filepath.Join(dir, "missing-bot"), "--blue", blue)
	require.Error(t, err)
	assert.Contains(t, errOut, "failed to start bot")
	assert.Contains(t, errOut, "Side: RED")
}

func TestApplyPlayFlags(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().Duration("timeout", 0, "")
	cmd.Flags().Int64("seed", 0, "")
	cmd.Flags().Int("max-turns", 0, "")
	require.NoError(t, cmd.Flags().Set("timeout", "3s"))

	defer func() { playRed, playBlueSetup, playLog, playTimeout = "", "", "", config.DefaultMoveTimeout }()
	playRed, playBlueSetup, playLog, playTimeout = "@human", "b.txt", "out.log", 3*time.Second

	cfg := config.Default()
	cfg.Red = config.Side{Name: "old", Command: []string{"./old"}}
	cfg.Blue = config.Side{Command: []string{"./blue"}}
	applyPlayFlags(cmd, cfg)

	assert.True(t, cfg.Red.Human)
	assert.Empty(t, cfg.Red.Command)
	assert.Equal(t, []string{"./blue"}, cfg.Blue.Command)
	assert.Equal(t, "b.txt", cfg.Blue.Setup)
	assert.Equal(t, "out.log", cfg.Transcript)
	assert.Equal(t, 3*time.Second, cfg.Timeouts.Move)
	assert.Equal(t, config.DefaultMaxTurns, cfg.TurnLimit(), "unset flags leave the file value alone")

	require.NoError(t, cmd.Flags().Set("max-turns", "0"))
	playMaxTurns = 0
	applyPlayFlags(cmd, cfg)
	assert.Equal(t, 0, cfg.TurnLimit(), "an explicit zero removes the limit")
}

func TestMatchConfigReadsSetupFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	require.NoError(t, os.WriteFile(good, []byte("1BBBBBB8sF\n2334445555\n6666777788\n8899999999\n"), 0o644))
	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("xyz\n"), 0o644))

	cfg := config.Default()
	cfg.Red.Setup = good
	mc, err := matchConfig(cfg)
	require.NoError(t, err)
	require.NotNil(t, mc.RedSetup)
	assert.Nil(t, mc.BlueSetup)
	assert.Equal(t, 4, mc.RedSetup.Rows())
	assert.Equal(t, stratego.ClassicArmy().Total(), mc.RedArmy.Total())

	cfg.Blue.Setup = bad
	_, err = matchConfig(cfg)
	assert.ErrorContains(t, err, "blue:")

	cfg.Blue.Setup = filepath.Join(dir, "missing.txt")
	_, err = matchConfig(cfg)
	assert.ErrorContains(t, err, "failed to read setup")
}

func TestNewEngine(t *testing.T) {
	cfg := config.Default()
	_, err := newEngine("gym", cfg, zerolog.Nop())
	assert.ErrorContains(t, err, `unknown engine "gym"`)

	e, err := newEngine("sandbox", cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, stratego.RED, e.Player())
	assert.Equal(t, 10, e.Board().Height())
}
