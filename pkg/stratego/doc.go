// Package stratego provides the shared domain types for the arena: players,
// pieces, board snapshots, moves and setups, plus the boundary the arbiter
// uses to talk to an external rules engine.
//
// # Frames of reference
//
// The engine owns a single global board. Every bot, however, describes the
// board in its own frame where its home rows are "near" (row 0 of its setup
// block is row 0 of its frame). BLUE's frame is the global frame. RED's frame
// is the global board rotated by 180 degrees, so RED coordinates and
// directions are mirrored before they reach the engine.
//
// # Board encoding
//
// A cell's sign encodes ownership (positive = RED, negative = BLUE, zero =
// empty) and its magnitude the Piece rank id. Lakes use the LAKE magnitude.
//
//	board := stratego.NewBoard(10, 10)
//	board.Set(stratego.Pos{Row: 9, Col: 0}, stratego.RED.Owns(stratego.FLAG))
//	p, owner := board.PieceAt(stratego.Pos{Row: 9, Col: 0})
//	// p == stratego.FLAG, owner == stratego.RED
//
// # Engine boundary
//
// The arbiter never decides legality itself. It only asks an Engine which
// pieces are selectable and which destinations are valid, and it consults an
// injected Detector for the two-square rule.
package stratego
