package stratego

import "fmt"

// TokenTable is an immutable bidirectional mapping between pieces and their
// single printable character. Build one with NewTokenTable or use
// ClassicTokens.
type TokenTable struct {
	toPiece map[rune]Piece
	toToken map[Piece]rune
}

// NewTokenTable builds a table from a piece→token map. Tokens and pieces must
// both be unique.
func NewTokenTable(tokens map[Piece]rune) (*TokenTable, error) {
	t := &TokenTable{
		toPiece: make(map[rune]Piece, len(tokens)),
		toToken: make(map[Piece]rune, len(tokens)),
	}
	for piece, tok := range tokens {
		if other, dup := t.toPiece[tok]; dup {
			return nil, fmt.Errorf("token %q assigned to both %s and %s", tok, other, piece)
		}
		t.toPiece[tok] = piece
		t.toToken[piece] = tok
	}
	return t, nil
}

var classicTokens = mustTokenTable(map[Piece]rune{
	EMPTY:      '.',
	LAKE:       '+',
	FLAG:       'F',
	BOMB:       'B',
	SPY:        's',
	SCOUT:      '9',
	MINER:      '8',
	SERGEANT:   '7',
	LIEUTENANT: '6',
	CAPTAIN:    '5',
	MAJOR:      '4',
	COLONEL:    '3',
	GENERAL:    '2',
	MARSHAL:    '1',
})

// ClassicTokens returns the standard table (`.` `+` `F` `B` `s` `9`..`1`).
// The table has no mutators, so sharing it is safe.
func ClassicTokens() *TokenTable {
	return classicTokens
}

// Piece looks up the piece for a token.
func (t *TokenTable) Piece(tok rune) (Piece, bool) {
	p, ok := t.toPiece[tok]
	return p, ok
}

// Token looks up the token for a piece.
func (t *TokenTable) Token(p Piece) (rune, bool) {
	tok, ok := t.toToken[p]
	return tok, ok
}

// MustToken returns the token for p or '?' when the table has none.
func (t *TokenTable) MustToken(p Piece) string {
	if tok, ok := t.toToken[p]; ok {
		return string(tok)
	}
	return "?"
}

func mustTokenTable(tokens map[Piece]rune) *TokenTable {
	t, err := NewTokenTable(tokens)
	if err != nil {
		panic(err)
	}
	return t
}
