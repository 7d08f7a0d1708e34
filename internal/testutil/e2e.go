//go:build integration

package testutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dyluth/arena/pkg/ledger"
)

const redisPort = nat.Port("6379/tcp")

// E2EEnvironment is an isolated end-to-end environment: a temp working
// directory, a real Redis container and a ledger client on a unique
// namespace.
type E2EEnvironment struct {
	T         *testing.T
	TmpDir    string
	Root      string
	Namespace string
	RedisURL  string
	Ledger    *ledger.Client
	Ctx       context.Context
}

// SetupE2EEnvironment starts Redis, changes into a fresh temp directory and
// connects a ledger client. Everything is torn down by t.Cleanup.
func SetupE2EEnvironment(t *testing.T) *E2EEnvironment {
	ctx := context.Background()
	root := GetProjectRoot()
	tmpDir := t.TempDir()
	origDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{string(redisPort)},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		if err := redisC.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Redis container: %v", err)
		}
	})

	host, err := redisC.Host(ctx)
	require.NoError(t, err)
	port, err := redisC.MappedPort(ctx, redisPort)
	require.NoError(t, err)

	env := &E2EEnvironment{
		T:         t,
		TmpDir:    tmpDir,
		Root:      root,
		Namespace: fmt.Sprintf("e2e-%s", time.Now().Format("20060102-150405-000000")),
		RedisURL:  fmt.Sprintf("redis://%s:%s/0", host, port.Port()),
		Ctx:       ctx,
	}
	env.Ledger, err = ledger.NewClientFromURL(env.RedisURL, env.Namespace)
	require.NoError(t, err)
	t.Cleanup(func() { env.Ledger.Close() })
	require.NoError(t, env.Ledger.Ping(ctx), "Redis container is not answering")

	return env
}

// BuildCommand compiles ./cmd/<name> into the environment and returns the
// binary path.
func (env *E2EEnvironment) BuildCommand(name string) string {
	out := filepath.Join(env.TmpDir, "bin", name)
	cmd := exec.Command("go", "build", "-o", out, "./cmd/"+name)
	cmd.Dir = env.Root
	output, err := cmd.CombinedOutput()
	require.NoError(env.T, err, "Failed to build %s: %s", name, output)
	env.T.Logf("✓ Built %s", name)
	return out
}

// WriteFile writes content relative to the environment's directory.
func (env *E2EEnvironment) WriteFile(name, content string) {
	path := filepath.Join(env.TmpDir, name)
	require.NoError(env.T, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(env.T, os.WriteFile(path, []byte(content), 0o644))
}

// VerifyFileContent checks that a file in the environment contains expected.
func (env *E2EEnvironment) VerifyFileContent(name, expected string) string {
	content, err := os.ReadFile(filepath.Join(env.TmpDir, name))
	require.NoError(env.T, err, "Failed to read file %s", name)
	require.Contains(env.T, string(content), expected, "File content mismatch")
	env.T.Logf("✓ File %s contains expected content", name)
	return string(content)
}

// WaitForMatches polls the ledger until it holds at least n records (up to
// 30 seconds).
func (env *E2EEnvironment) WaitForMatches(n int) []*ledger.MatchRecord {
	for i := 0; i < 60; i++ {
		records, _, err := env.Ledger.ListMatches(env.Ctx)
		if err == nil && len(records) >= n {
			env.T.Logf("✓ Ledger holds %d matches", len(records))
			return records
		}
		time.Sleep(500 * time.Millisecond)
	}
	require.Fail(env.T, fmt.Sprintf("ledger did not reach %d matches within 30 seconds", n))
	return nil
}

// RandbotArenaYML returns an arena.yml pitting two seeded randbots against
// each other.
func RandbotArenaYML(randbot string) string {
	return fmt.Sprintf(`version: "1.0"
red:
  name: randbot-red
  command: [%[1]q, "--seed", "3"]
blue:
  name: randbot-blue
  command: [%[1]q, "--seed", "4", "--shuffle"]
timeouts:
  move: 5s
  exit_grace: 1s
transcript: game.log
max_turns: 500
`, randbot)
}

// GetProjectRoot walks up from the working directory of the test binary to
// the directory holding go.mod.
func GetProjectRoot() string {
	root, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			return root
		}
		parent := filepath.Dir(root)
		if parent == root {
			return "."
		}
		root = parent
	}
}
