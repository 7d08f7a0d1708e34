package scaffold

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/arena/internal/config"
)

// chdirTemp moves the test into a fresh directory for its duration.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	originalDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(originalDir) })
	return dir
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name      string
		force     bool
		setupFunc func(t *testing.T)
		wantOut   string
	}{
		{
			name:      "fresh initialization",
			setupFunc: func(t *testing.T) {},
		},
		{
			name:  "force initialization removes existing files",
			force: true,
			setupFunc: func(t *testing.T) {
				require.NoError(t, os.WriteFile("arena.yml", []byte("old content"), 0644))
				require.NoError(t, os.MkdirAll(filepath.Join("setups", "old"), 0755))
				require.NoError(t, os.WriteFile(filepath.Join("setups", "old", "old.txt"), []byte("old"), 0644))
			},
			wantOut: "Removing existing arena.yml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			tt.setupFunc(t)

			out := &bytes.Buffer{}
			require.NoError(t, Initialize(tt.force, out))
			assert.Contains(t, out.String(), tt.wantOut)

			for _, path := range []string{"arena.yml", "setups/classic.txt", "bots/README.md"} {
				info, err := os.Stat(path)
				require.NoError(t, err, path)
				assert.False(t, info.IsDir())
				assert.NotZero(t, info.Size())
			}
			assert.NoFileExists(t, filepath.Join("setups", "old", "old.txt"))

			cfg, err := config.Load("arena.yml")
			require.NoError(t, err)
			assert.Equal(t, "randbot-red", cfg.Red.Identity())
			assert.Equal(t, "randbot-blue", cfg.Blue.Identity())
			assert.Equal(t, "setups/classic.txt", cfg.Red.Setup)
			assert.NoError(t, cfg.RequireSides())
		})
	}
}

func TestHandleForce(t *testing.T) {
	chdirTemp(t)
	require.NoError(t, os.WriteFile("arena.yml", []byte("x"), 0644))
	require.NoError(t, os.MkdirAll("bots", 0755))

	out := &bytes.Buffer{}
	require.NoError(t, handleForce(out))
	assert.NoFileExists(t, "arena.yml")
	assert.NoDirExists(t, "bots")
	assert.Contains(t, out.String(), "Removing existing bots/ directory")
	assert.NotContains(t, out.String(), "setups/")
}

func TestGetTemplateFiles(t *testing.T) {
	files, err := getTemplateFiles()
	require.NoError(t, err)
	require.Len(t, files, 3)

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
		assert.NotEmpty(t, f.Content, f.Path)
		assert.Equal(t, os.FileMode(0644), f.Permissions)
	}
	assert.Equal(t, []string{"arena.yml", filepath.Join("setups", "classic.txt"), filepath.Join("bots", "README.md")}, paths)
}

func TestWriteFilesFailsWithoutDirectory(t *testing.T) {
	chdirTemp(t)
	err := writeFiles([]FileInfo{{Path: filepath.Join("missing", "x.txt"), Content: []byte("x"), Permissions: 0644}})
	assert.ErrorContains(t, err, "failed to write")
}

func TestValidateCreatedFiles(t *testing.T) {
	t.Run("missing arena.yml", func(t *testing.T) {
		chdirTemp(t)
		assert.ErrorContains(t, validateCreatedFiles(), "created arena.yml is invalid")
	})

	t.Run("setup file removed", func(t *testing.T) {
		chdirTemp(t)
		require.NoError(t, Initialize(false, &bytes.Buffer{}))
		require.NoError(t, os.Remove(filepath.Join("setups", "classic.txt")))
		assert.ErrorContains(t, validateCreatedFiles(), "setup file")
	})
}

func TestPrintSuccess(t *testing.T) {
	out := &bytes.Buffer{}
	PrintSuccess(out)
	assert.Contains(t, out.String(), "Successfully initialized arena")
	assert.Contains(t, out.String(), "arena play")
}
