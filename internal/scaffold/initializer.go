package scaffold

import (
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dyluth/arena/internal/config"
)

//go:embed templates/*
var templatesFS embed.FS

const (
	setupsDir = "setups"
	botsDir   = "bots"
)

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Initialize writes a starter arena.yml, a classic placement and the bot
// protocol notes into the current directory. With force, existing files are
// removed first and their removal is reported on w.
func Initialize(force bool, w io.Writer) error {
	if force {
		if err := handleForce(w); err != nil {
			return err
		}
	}

	files, err := getTemplateFiles()
	if err != nil {
		return err
	}

	if err := createDirectories(); err != nil {
		return err
	}

	if err := writeFiles(files); err != nil {
		return err
	}

	return validateCreatedFiles()
}

// handleForce removes existing files if --force was specified
func handleForce(w io.Writer) error {
	if _, err := os.Stat(config.DefaultConfigFile); err == nil {
		fmt.Fprintf(w, "⚠️  Removing existing %s...\n", config.DefaultConfigFile)
		if err := os.Remove(config.DefaultConfigFile); err != nil {
			return fmt.Errorf("failed to remove %s: %w", config.DefaultConfigFile, err)
		}
	}

	for _, dir := range []string{setupsDir, botsDir} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			fmt.Fprintf(w, "⚠️  Removing existing %s/ directory...\n", dir)
			if err := os.RemoveAll(dir); err != nil {
				return fmt.Errorf("failed to remove %s/ directory: %w", dir, err)
			}
		}
	}

	return nil
}

// getTemplateFiles reads and processes all template files
func getTemplateFiles() ([]FileInfo, error) {
	specs := []struct {
		template string
		path     string
	}{
		{"templates/arena.yml.tmpl", config.DefaultConfigFile},
		{"templates/setup.txt.tmpl", filepath.Join(setupsDir, "classic.txt")},
		{"templates/README.md.tmpl", filepath.Join(botsDir, "README.md")},
	}

	files := make([]FileInfo, 0, len(specs))
	for _, s := range specs {
		content, err := templatesFS.ReadFile(s.template)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s template: %w", filepath.Base(s.path), err)
		}
		files = append(files, FileInfo{Path: s.path, Content: content, Permissions: 0644})
	}
	return files, nil
}

// createDirectories creates the necessary directory structure
func createDirectories() error {
	for _, dir := range []string{setupsDir, botsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// writeFiles writes all template files to disk
func writeFiles(files []FileInfo) error {
	for _, file := range files {
		if err := os.WriteFile(file.Path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}
	return nil
}

// validateCreatedFiles loads the written arena.yml through the normal config
// path, which also checks that the referenced setup file exists.
func validateCreatedFiles() error {
	if _, err := config.Load(config.DefaultConfigFile); err != nil {
		return fmt.Errorf("created %s is invalid: %w", config.DefaultConfigFile, err)
	}
	return nil
}

// PrintSuccess prints the success message with created files
func PrintSuccess(w io.Writer) {
	fmt.Fprintln(w, "\n✅ Successfully initialized arena!")
	fmt.Fprintln(w, "\nCreated:")
	fmt.Fprintf(w, "  ✓ %s\n", config.DefaultConfigFile)
	fmt.Fprintln(w, "  ✓ setups/classic.txt")
	fmt.Fprintln(w, "  ✓ bots/README.md")
	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintln(w, "  1. Point red and blue in arena.yml at your bots")
	fmt.Fprintln(w, "  2. Run 'arena play' to start a match")
	fmt.Fprintln(w, "  3. Run 'arena replay game.log --verify' to check the transcript")
}
