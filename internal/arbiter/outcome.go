package arbiter

import (
	"fmt"

	"github.com/dyluth/arena/pkg/stratego"
)

// Outcome tokens reported to bots and written to transcripts.
const (
	OutcomeOK          = "OK"
	OutcomeVictoryFlag = "VICTORY_FLAG"
	OutcomeKills       = "KILLS"
	OutcomeDies        = "DIES"
	OutcomeBothDie     = "BOTHDIE"
	OutcomeIllegal     = "ILLEGAL"
	OutcomeSurrender   = "SURRENDER"
)

// DeriveOutcome labels a move from the board before and after it was
// applied. It only reads the snapshots.
//
// An empty destination is OK and a captured flag is VICTORY_FLAG. Otherwise
// the value left on dst decides: the attacker (KILLS), the defender (DIES)
// or nothing (BOTHDIE). Any other state is ILLEGAL.
func DeriveOutcome(before, after stratego.Board, src, dst stratego.Pos, tokens *stratego.TokenTable) string {
	attacker := before.At(src)
	defender := before.At(dst)

	if defender == 0 {
		return OutcomeOK
	}
	if stratego.Piece(abs(defender)) == stratego.FLAG {
		return OutcomeVictoryFlag
	}

	att := tokens.MustToken(stratego.Piece(abs(attacker)))
	def := tokens.MustToken(stratego.Piece(abs(defender)))
	switch after.At(dst) {
	case attacker:
		return fmt.Sprintf("%s %s %s", OutcomeKills, att, def)
	case defender:
		return fmt.Sprintf("%s %s %s", OutcomeDies, att, def)
	case 0:
		return fmt.Sprintf("%s %s %s", OutcomeBothDie, att, def)
	default:
		return OutcomeIllegal
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
