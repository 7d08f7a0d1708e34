package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dyluth/arena/pkg/stratego"
)

// ErrInvalidSetup is returned when a placement block cannot be used for the
// configured army and board.
var ErrInvalidSetup = errors.New("invalid setup")

// ParseSetup parses a newline-separated placement block. Surrounding blank
// lines are ignored; every other character must be a known token.
func ParseSetup(text string, tokens *stratego.TokenTable) (stratego.Setup, error) {
	text = strings.Trim(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty placement block", ErrInvalidSetup)
	}
	return ParseSetupLines(strings.Split(text, "\n"), tokens)
}

// ParseSetupLines parses a placement block that is already split into rows.
func ParseSetupLines(lines []string, tokens *stratego.TokenTable) (stratego.Setup, error) {
	setup := make(stratego.Setup, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		row := make([]stratego.Piece, 0, len(line))
		var invalid []string
		for _, ch := range line {
			p, ok := tokens.Piece(ch)
			if !ok {
				invalid = append(invalid, string(ch))
				continue
			}
			row = append(row, p)
		}
		if len(invalid) > 0 {
			return nil, fmt.Errorf("%w: invalid characters %q in row %d %q", ErrInvalidSetup, invalid, i, line)
		}
		setup = append(setup, row)
	}
	return setup, nil
}

// ValidateSetup checks that a block exactly tiles rows×width and holds the
// army's count of every rank.
func ValidateSetup(setup stratego.Setup, army stratego.Army, rows, width int) error {
	if setup.Rows() != rows {
		return fmt.Errorf("%w: expected %d rows, got %d", ErrInvalidSetup, rows, setup.Rows())
	}
	for y, row := range setup {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d cells, expected %d", ErrInvalidSetup, y, len(row), width)
		}
	}

	counts := setup.Counts()
	placed := 0
	for _, rank := range stratego.PlaceableRanks() {
		if counts[rank] != army.Count(rank) {
			return fmt.Errorf("%w: expected %d %s, got %d", ErrInvalidSetup, army.Count(rank), rank, counts[rank])
		}
		placed += counts[rank]
	}
	if placed != army.Total() {
		return fmt.Errorf("%w: expected %d pieces, got %d", ErrInvalidSetup, army.Total(), placed)
	}
	if counts[stratego.LAKE] > 0 {
		return fmt.Errorf("%w: lakes cannot be placed", ErrInvalidSetup)
	}
	return nil
}

// SetupToAction returns the setup-grid cell (x = column, y = row) that holds
// the piece placed on placement turn `turn`. Ranks are placed in ascending id
// order; within a rank the grid is scanned row-major.
func SetupToAction(setup stratego.Setup, turn int, army stratego.Army) (x, y int, err error) {
	if turn < 0 {
		return 0, 0, fmt.Errorf("%w: negative placement turn %d", ErrInvalidSetup, turn)
	}

	remaining := turn
	target := stratego.EMPTY
	for _, rank := range stratego.PlaceableRanks() {
		n := army.Count(rank)
		if remaining < n {
			target = rank
			break
		}
		remaining -= n
	}
	if target == stratego.EMPTY {
		return 0, 0, fmt.Errorf("%w: placement turn %d exceeds army of %d", ErrInvalidSetup, turn, army.Total())
	}

	seen := 0
	for y, row := range setup {
		for x, p := range row {
			if p != target {
				continue
			}
			if seen == remaining {
				return x, y, nil
			}
			seen++
		}
	}
	return 0, 0, fmt.Errorf("%w: no %s found for placement turn %d", ErrInvalidSetup, target, turn)
}

// PlacementCell maps a setup-grid cell in the player's own frame to the
// engine-global board.
func PlacementCell(player stratego.Player, x, y, height, width int) stratego.Pos {
	if player == stratego.RED {
		return stratego.Pos{Row: height - 1 - y, Col: width - 1 - x}
	}
	return stratego.Pos{Row: y, Col: x}
}

// PlacementActions lists the engine-global placement cells for a whole block
// in placement-turn order.
func PlacementActions(player stratego.Player, setup stratego.Setup, army stratego.Army, height, width int) ([]stratego.Pos, error) {
	total := army.Total()
	actions := make([]stratego.Pos, 0, total)
	for turn := 0; turn < total; turn++ {
		x, y, err := SetupToAction(setup, turn, army)
		if err != nil {
			return nil, err
		}
		actions = append(actions, PlacementCell(player, x, y, height, width))
	}
	return actions, nil
}

// PlacementSchedule interleaves RED and BLUE placement turns. RED places on
// even turns while it has pieces left; a side with nothing left is skipped.
func PlacementSchedule(redTotal, blueTotal int) []stratego.Player {
	order := make([]stratego.Player, 0, redTotal+blueTotal)
	red, blue := 0, 0
	for turn := 0; red < redTotal || blue < blueTotal; turn++ {
		if (turn%2 == 0 && red < redTotal) || blue >= blueTotal {
			order = append(order, stratego.RED)
			red++
		} else {
			order = append(order, stratego.BLUE)
			blue++
		}
	}
	return order
}

// SetupFromBoard reconstructs a player's placement block from a board
// snapshot taken right after the placement phase.
func SetupFromBoard(board stratego.Board, player stratego.Player, rows int) stratego.Setup {
	height, width := board.Height(), board.Width()
	setup := make(stratego.Setup, rows)
	for y := 0; y < rows; y++ {
		setup[y] = make([]stratego.Piece, width)
		for x := 0; x < width; x++ {
			p, owner := board.PieceAt(PlacementCell(player, x, y, height, width))
			if owner == player {
				setup[y][x] = p
			}
		}
	}
	return setup
}

// FormatSetup renders a block as one string per row.
func FormatSetup(setup stratego.Setup, tokens *stratego.TokenTable) []string {
	lines := make([]string, len(setup))
	for y, row := range setup {
		var sb strings.Builder
		for _, p := range row {
			sb.WriteString(tokens.MustToken(p))
		}
		lines[y] = sb.String()
	}
	return lines
}
