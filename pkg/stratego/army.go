package stratego

import (
	"errors"
	"fmt"
)

// ErrArmyMismatch is returned when the two configured armies cannot play each
// other on the configured board.
var ErrArmyMismatch = errors.New("army mismatch")

// Army maps each placeable rank to the number of copies one side fields.
type Army map[Piece]int

// ClassicArmy returns the standard 40-piece army.
func ClassicArmy() Army {
	return Army{
		FLAG:       1,
		BOMB:       6,
		SPY:        1,
		SCOUT:      8,
		MINER:      5,
		SERGEANT:   4,
		LIEUTENANT: 4,
		CAPTAIN:    4,
		MAJOR:      3,
		COLONEL:    2,
		GENERAL:    1,
		MARSHAL:    1,
	}
}

// Total returns the number of pieces in the army.
func (a Army) Total() int {
	total := 0
	for _, n := range a {
		total += n
	}
	return total
}

// Count returns the configured copies of a rank (0 when absent).
func (a Army) Count(p Piece) int {
	return a[p]
}

// Validate checks the army only names placeable ranks, has non-negative
// counts and contains exactly one flag.
func (a Army) Validate() error {
	for p, n := range a {
		if !p.Placeable() {
			return fmt.Errorf("army contains non-placeable piece %s", p)
		}
		if n < 0 {
			return fmt.Errorf("army count for %s must be >= 0, got %d", p, n)
		}
	}
	if a[FLAG] != 1 {
		return fmt.Errorf("army must contain exactly one FLAG, got %d", a[FLAG])
	}
	return nil
}

// SetupRows returns how many home rows an army of this size fills on a board
// of the given dimensions. Both armies must be the same size, fill whole rows,
// and fit in half the board.
func SetupRows(red, blue Army, height, width int) (int, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("%w: board dimensions must be positive, got %dx%d", ErrArmyMismatch, height, width)
	}
	rt, bt := red.Total(), blue.Total()
	if rt != bt {
		return 0, fmt.Errorf("%w: red fields %d pieces, blue fields %d", ErrArmyMismatch, rt, bt)
	}
	if rt == 0 || rt%width != 0 {
		return 0, fmt.Errorf("%w: %d pieces do not fill whole rows of width %d", ErrArmyMismatch, rt, width)
	}
	rows := rt / width
	if rows > height/2 {
		return 0, fmt.Errorf("%w: %d setup rows exceed half of a %d-row board", ErrArmyMismatch, rows, height)
	}
	return rows, nil
}
