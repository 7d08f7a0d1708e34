package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/dyluth/arena/internal/transport"
	"github.com/dyluth/arena/pkg/stratego"
)

// Defaults applied when a field is omitted.
const (
	DefaultMoveTimeout = 2 * time.Second
	DefaultExitGrace   = 500 * time.Millisecond
	DefaultTranscript  = "game.log"
	DefaultMaxTurns    = 2000
	DefaultNamespace   = "default"
	DefaultLogLevel    = "info"
	DefaultConfigFile  = "arena.yml"
)

const (
	supportedVersion = "1.0"
	defaultBoardSize = 10

	envRedisURL    = "ARENA_REDIS_URL"
	envNamespace   = "ARENA_NAMESPACE"
	envLogLevel    = "ARENA_LOG_LEVEL"
	envMoveTimeout = "ARENA_MOVE_TIMEOUT"
)

// ArenaConfig is the top-level arena.yml.
type ArenaConfig struct {
	Version    string         `yaml:"version"`
	Board      *BoardConfig   `yaml:"board,omitempty"`
	Army       map[string]int `yaml:"army,omitempty"`      // token -> count, both sides
	RedArmy    map[string]int `yaml:"red_army,omitempty"`  // overrides army for RED
	BlueArmy   map[string]int `yaml:"blue_army,omitempty"` // overrides army for BLUE
	Timeouts   *Timeouts      `yaml:"timeouts,omitempty"`
	Red        Side           `yaml:"red"`
	Blue       Side           `yaml:"blue"`
	Transcript string         `yaml:"transcript,omitempty"`
	MaxTurns   *int           `yaml:"max_turns,omitempty"`
	Seed       int64          `yaml:"seed,omitempty"`
	Ledger     *LedgerConfig  `yaml:"ledger,omitempty"`
	LogLevel   string         `yaml:"log_level,omitempty"`
}

// BoardConfig sets the board size and lake cells as [row, col] pairs.
type BoardConfig struct {
	Width  int      `yaml:"width"`
	Height int      `yaml:"height"`
	Lakes  [][2]int `yaml:"lakes,omitempty"`
}

// Timeouts bounds how long a bot may take.
type Timeouts struct {
	Move      time.Duration `yaml:"move,omitempty"`
	ExitGrace time.Duration `yaml:"exit_grace,omitempty"`
}

// Side describes one player. Exactly one of Human, Command (a local
// executable) or Image (a container) selects how it runs; Command may also
// be given with Image to override the container's entrypoint.
type Side struct {
	Name        string   `yaml:"name,omitempty"`
	Human       bool     `yaml:"human,omitempty"`
	Command     []string `yaml:"command,omitempty"`
	Image       string   `yaml:"image,omitempty"`
	Dir         string   `yaml:"dir,omitempty"`
	Environment []string `yaml:"environment,omitempty"`
	Setup       string   `yaml:"setup,omitempty"` // file holding a fallback placement block
}

// LedgerConfig enables result storage in Redis.
type LedgerConfig struct {
	RedisURL  string `yaml:"redis_url"`
	Namespace string `yaml:"namespace,omitempty"`
}

// IsZero reports whether the side was left unconfigured.
func (s Side) IsZero() bool {
	return !s.Human && len(s.Command) == 0 && s.Image == "" && s.Name == ""
}

// Identity is the name written to the transcript and sent to the opponent.
func (s Side) Identity() string {
	switch {
	case s.Human:
		return transport.HumanIdentity
	case s.Name != "":
		return s.Name
	case s.Image != "":
		return s.Image
	case len(s.Command) > 0:
		return filepath.Base(s.Command[0])
	default:
		return ""
	}
}

// SideFromArg builds a side from a CLI value: "@human" or an executable path.
func SideFromArg(arg string) Side {
	if arg == transport.HumanIdentity {
		return Side{Human: true}
	}
	return Side{Command: []string{arg}}
}

// Default returns the classic configuration with no sides set.
func Default() *ArenaConfig {
	c := &ArenaConfig{Version: supportedVersion}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills every omitted field.
func (c *ArenaConfig) ApplyDefaults() {
	if c.Board == nil {
		c.Board = &BoardConfig{}
	}
	if c.Board.Width == 0 && c.Board.Height == 0 {
		c.Board.Width, c.Board.Height = defaultBoardSize, defaultBoardSize
		if c.Board.Lakes == nil {
			c.Board.Lakes = classicLakes()
		}
	}
	if c.Army == nil {
		c.Army = armyToTokens(stratego.ClassicArmy())
	}
	if c.Timeouts == nil {
		c.Timeouts = &Timeouts{}
	}
	if c.Timeouts.Move == 0 {
		c.Timeouts.Move = DefaultMoveTimeout
	}
	if c.Timeouts.ExitGrace == 0 {
		c.Timeouts.ExitGrace = DefaultExitGrace
	}
	if c.Transcript == "" {
		c.Transcript = DefaultTranscript
	}
	if c.MaxTurns == nil {
		c.SetMaxTurns(DefaultMaxTurns)
	}
	if c.Ledger != nil && c.Ledger.Namespace == "" {
		c.Ledger.Namespace = DefaultNamespace
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// TurnLimit returns the configured max_turns. Zero means no limit.
func (c *ArenaConfig) TurnLimit() int {
	if c.MaxTurns == nil {
		return 0
	}
	return *c.MaxTurns
}

// SetMaxTurns overrides max_turns; zero removes the limit.
func (c *ArenaConfig) SetMaxTurns(n int) {
	c.MaxTurns = &n
}

// Validate performs strict validation. Sides are only checked when set; use
// RequireSides before starting a match.
func (c *ArenaConfig) Validate() error {
	if c.Version != supportedVersion {
		return fmt.Errorf("unsupported version: %s (expected: %s)", c.Version, supportedVersion)
	}
	if c.Board == nil || c.Board.Width <= 0 || c.Board.Height <= 0 {
		return fmt.Errorf("board width and height must be positive")
	}
	for _, l := range c.Board.Lakes {
		if l[0] < 0 || l[0] >= c.Board.Height || l[1] < 0 || l[1] >= c.Board.Width {
			return fmt.Errorf("lake [%d, %d] is outside the %dx%d board", l[0], l[1], c.Board.Width, c.Board.Height)
		}
	}

	red, blue, err := c.Armies()
	if err != nil {
		return err
	}
	if _, err := stratego.SetupRows(red, blue, c.Board.Height, c.Board.Width); err != nil {
		return err
	}

	if c.Timeouts == nil || c.Timeouts.Move <= 0 || c.Timeouts.ExitGrace < 0 {
		return fmt.Errorf("timeouts.move must be positive and timeouts.exit_grace must not be negative")
	}
	if c.TurnLimit() < 0 {
		return fmt.Errorf("max_turns must be >= 0 (0 = no limit), got %d", c.TurnLimit())
	}
	if c.Ledger != nil && c.Ledger.RedisURL == "" {
		return fmt.Errorf("ledger.redis_url is required when ledger is configured (e.g. redis://localhost:6379/0)")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}

	for name, side := range map[string]Side{"red": c.Red, "blue": c.Blue} {
		if side.IsZero() {
			continue
		}
		if err := side.Validate(name); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a single side.
func (s Side) Validate(name string) error {
	kinds := 0
	if s.Human {
		kinds++
	}
	if s.Image != "" {
		kinds++
	} else if len(s.Command) > 0 {
		kinds++
	}
	if kinds != 1 {
		return fmt.Errorf("%s: exactly one of human, command or image is required", name)
	}
	if s.Human && len(s.Command) > 0 {
		return fmt.Errorf("%s: a human side cannot have a command", name)
	}
	if s.Setup != "" {
		if _, err := os.Stat(s.Setup); err != nil {
			return fmt.Errorf("%s: setup file: %w", name, err)
		}
	}
	return nil
}

// RequireSides checks that both sides are configured and that at most one of
// them is a human.
func (c *ArenaConfig) RequireSides() error {
	if c.Red.IsZero() || c.Blue.IsZero() {
		return fmt.Errorf("both red and blue must be configured (use --red/--blue or arena.yml)")
	}
	if err := c.Red.Validate("red"); err != nil {
		return err
	}
	if err := c.Blue.Validate("blue"); err != nil {
		return err
	}
	if c.Red.Human && c.Blue.Human {
		return fmt.Errorf("only one side can be a human")
	}
	return nil
}

// Armies converts the token maps into armies. red_army and blue_army fall
// back to army.
func (c *ArenaConfig) Armies() (red, blue stratego.Army, err error) {
	tokens := stratego.ClassicTokens()
	redSpec, blueSpec := c.Army, c.Army
	if c.RedArmy != nil {
		redSpec = c.RedArmy
	}
	if c.BlueArmy != nil {
		blueSpec = c.BlueArmy
	}
	if red, err = armyFromTokens(redSpec, tokens); err != nil {
		return nil, nil, fmt.Errorf("red army: %w", err)
	}
	if blue, err = armyFromTokens(blueSpec, tokens); err != nil {
		return nil, nil, fmt.Errorf("blue army: %w", err)
	}
	return red, blue, nil
}

// LakePositions returns the configured lake cells.
func (c *ArenaConfig) LakePositions() []stratego.Pos {
	lakes := make([]stratego.Pos, 0, len(c.Board.Lakes))
	for _, l := range c.Board.Lakes {
		lakes = append(lakes, stratego.Pos{Row: l[0], Col: l[1]})
	}
	return lakes
}

func armyFromTokens(spec map[string]int, tokens *stratego.TokenTable) (stratego.Army, error) {
	army := stratego.Army{}
	for tok, n := range spec {
		runes := []rune(tok)
		if len(runes) != 1 {
			return nil, fmt.Errorf("army token %q must be a single character", tok)
		}
		piece, ok := tokens.Piece(runes[0])
		if !ok || !piece.Placeable() {
			return nil, fmt.Errorf("unknown army token %q", tok)
		}
		army[piece] = n
	}
	if err := army.Validate(); err != nil {
		return nil, err
	}
	return army, nil
}

func armyToTokens(army stratego.Army) map[string]int {
	tokens := stratego.ClassicTokens()
	out := make(map[string]int, len(army))
	for piece, n := range army {
		out[tokens.MustToken(piece)] = n
	}
	return out
}

func classicLakes() [][2]int {
	return [][2]int{{4, 2}, {4, 3}, {5, 2}, {5, 3}, {4, 6}, {4, 7}, {5, 6}, {5, 7}}
}

// ApplyEnv applies ARENA_* overrides. getenv is usually os.Getenv.
func (c *ArenaConfig) ApplyEnv(getenv func(string) string) error {
	if url := getenv(envRedisURL); url != "" {
		if c.Ledger == nil {
			c.Ledger = &LedgerConfig{}
		}
		c.Ledger.RedisURL = url
	}
	if ns := getenv(envNamespace); ns != "" {
		if c.Ledger == nil {
			c.Ledger = &LedgerConfig{}
		}
		c.Ledger.Namespace = ns
	}
	if c.Ledger != nil && c.Ledger.Namespace == "" {
		c.Ledger.Namespace = DefaultNamespace
	}
	if lvl := getenv(envLogLevel); lvl != "" {
		c.LogLevel = strings.ToLower(lvl)
	}
	if t := getenv(envMoveTimeout); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", envMoveTimeout, err)
		}
		if c.Timeouts == nil {
			c.Timeouts = &Timeouts{}
		}
		c.Timeouts.Move = d
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads, defaults and validates arena.yml from path.
func Load(path string) (*ArenaConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config ArenaConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}
