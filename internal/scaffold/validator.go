package scaffold

import (
	"fmt"
	"os"
	"strings"

	"github.com/dyluth/arena/internal/config"
)

// CheckExisting returns an error naming arena.yml, setups/ or bots/ if any
// of them already exist.
func CheckExisting() error {
	var existingFiles []string

	if _, err := os.Stat(config.DefaultConfigFile); err == nil {
		existingFiles = append(existingFiles, config.DefaultConfigFile)
	}
	for _, dir := range []string{setupsDir, botsDir} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			existingFiles = append(existingFiles, dir+"/")
		}
	}

	if len(existingFiles) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("arena already initialized\n\nFound existing")
	if len(existingFiles) == 1 {
		fmt.Fprintf(&b, ": %s\n", existingFiles[0])
	} else {
		b.WriteString(" files:\n")
		for _, file := range existingFiles {
			fmt.Fprintf(&b, "  - %s\n", file)
		}
	}
	b.WriteString("\nUse 'arena init --force' to reinitialize (this will overwrite existing configuration)")
	return fmt.Errorf("%s", b.String())
}
