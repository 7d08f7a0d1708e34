package arbiter

import (
	"strings"

	"github.com/dyluth/arena/pkg/stratego"
)

// Cell characters that are not piece tokens.
const (
	hiddenCell = '#'
	lakeCell   = '+'
	emptyCell  = '.'
)

// RenderBoard draws the board in the viewer's own frame. BLUE sees the
// engine rows as they are; RED sees rows and columns reversed. The viewer's
// pieces are shown by token and the opponent's are hidden.
func RenderBoard(board stratego.Board, viewer stratego.Player, tokens *stratego.TokenTable) []string {
	height, width := board.Height(), board.Width()
	lines := make([]string, height)
	for y := 0; y < height; y++ {
		var sb strings.Builder
		sb.Grow(width)
		for x := 0; x < width; x++ {
			pos := stratego.Pos{Row: y, Col: x}
			if viewer == stratego.RED {
				pos = stratego.Pos{Row: height - 1 - y, Col: width - 1 - x}
			}
			piece, owner := board.PieceAt(pos)
			switch {
			case piece == stratego.LAKE:
				sb.WriteRune(lakeCell)
			case owner == 0:
				sb.WriteRune(emptyCell)
			case owner == viewer:
				sb.WriteString(tokens.MustToken(piece))
			default:
				sb.WriteRune(hiddenCell)
			}
		}
		lines[y] = sb.String()
	}
	return lines
}
