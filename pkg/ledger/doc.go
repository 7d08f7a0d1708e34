// Package ledger stores finished Stratego matches in Redis so results can be
// listed, inspected and followed live after the arena process exits.
//
// # Records
//
// A MatchRecord is written once, when a match ends. It carries both bot
// identities, the winner, the terminal outcome token, the margin (pieces
// remaining per side) and the full transcript text so a stored match can be
// replayed without the original log file.
//
// # Namespaces
//
// All keys and channels are scoped by a namespace so several arenas (or test
// runs) can share one Redis server without seeing each other's results.
//
//	Records: arena:{namespace}:match:{match_id}      (hash)
//	Events:  arena:{namespace}:match_events          (pub/sub, JSON record)
//
// # Usage
//
//	client, err := ledger.NewClient(&redis.Options{Addr: "localhost:6379"}, "default")
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	if err := client.SaveMatch(ctx, record); err != nil {
//		return err
//	}
//
// Delivery of events is at-most-once: a subscriber that is not connected when
// a record is saved will not see it, but can always find it with ListMatches.
package ledger
