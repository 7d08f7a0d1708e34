package codec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dyluth/arena/pkg/stratego"
)

var (
	turnLineRe   = regexp.MustCompile(`(?i)^\s*(\d+)\s+(RED|BLU):\s+(\d+)\s+(\d+)\s+(LEFT|RIGHT|UP|DOWN)(?:\s+(\d+))?\b`)
	resultLineRe = regexp.MustCompile(`^(.+?)\s+(RED|BLUE)\s+VICTORY\s+(\d+)\s+(\d+)\s+(\d+)\s*$`)
)

// TurnLine is one executed turn as written to a transcript.
type TurnLine struct {
	Turn   int
	Player stratego.Player
	Move   stratego.Move
}

// ResultLine is the terminal line of a transcript.
type ResultLine struct {
	Winner        string
	Color         stratego.Player
	Turns         int
	RedRemaining  int
	BlueRemaining int
}

// FormatSetupHeader renders "RED <identity>" or "BLUE <identity>".
func FormatSetupHeader(player stratego.Player, identity string) string {
	return player.String() + " " + identity
}

// ParseSetupHeader splits a setup header into its color and identity.
func ParseSetupHeader(line string) (stratego.Player, string, bool) {
	color, identity, _ := strings.Cut(strings.TrimSpace(line), " ")
	switch color {
	case "RED":
		return stratego.RED, strings.TrimSpace(identity), true
	case "BLUE":
		return stratego.BLUE, strings.TrimSpace(identity), true
	default:
		return 0, "", false
	}
}

// FormatTurnLine renders "<turn> <RED|BLU>: <move> <outcome>".
func FormatTurnLine(turn int, player stratego.Player, move stratego.Move, outcome string) string {
	return fmt.Sprintf("%d %s: %s %s", turn, player.Tag(), FormatMove(move), outcome)
}

// FormatAttemptLine renders a terminating attempt that was never executed.
// The line intentionally carries no coordinates so ParseTurnLine rejects it.
func FormatAttemptLine(turn int, player stratego.Player, outcome, raw string) string {
	line := fmt.Sprintf("%d %s: %s", turn, player.Tag(), outcome)
	if raw = strings.TrimSpace(raw); raw != "" {
		line += " [" + raw + "]"
	}
	return line
}

// ParseTurnLine extracts the mover and move from a turn line.
func ParseTurnLine(line string) (TurnLine, bool) {
	m := turnLineRe.FindStringSubmatch(line)
	if m == nil {
		return TurnLine{}, false
	}
	turn, _ := strconv.Atoi(m[1])
	x, _ := strconv.Atoi(m[3])
	y, _ := strconv.Atoi(m[4])
	mult := 1
	if m[6] != "" {
		mult, _ = strconv.Atoi(m[6])
	}
	player := stratego.RED
	if strings.EqualFold(m[2], "BLU") {
		player = stratego.BLUE
	}
	return TurnLine{
		Turn:   turn,
		Player: player,
		Move: stratego.Move{
			X:          x,
			Y:          y,
			Direction:  stratego.Direction(strings.ToUpper(m[5])),
			Multiplier: mult,
		},
	}, true
}

// FormatResultLine renders "<winner> <RED|BLUE> VICTORY <turns> <red> <blue>".
func FormatResultLine(r ResultLine) string {
	return fmt.Sprintf("%s %s VICTORY %d %d %d", r.Winner, r.Color, r.Turns, r.RedRemaining, r.BlueRemaining)
}

// ParseResultLine parses a terminal result line.
func ParseResultLine(line string) (ResultLine, bool) {
	m := resultLineRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return ResultLine{}, false
	}
	r := ResultLine{Winner: m[1], Color: stratego.RED}
	if m[2] == "BLUE" {
		r.Color = stratego.BLUE
	}
	r.Turns, _ = strconv.Atoi(m[3])
	r.RedRemaining, _ = strconv.Atoi(m[4])
	r.BlueRemaining, _ = strconv.Atoi(m[5])
	return r, true
}
