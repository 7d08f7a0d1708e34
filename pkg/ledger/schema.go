package ledger

import "fmt"

// Redis key pattern helpers.
//
// Key pattern: arena:{namespace}:match:{match_id}
// Channel pattern: arena:{namespace}:match_events

// MatchKey returns the Redis key for a match record.
func MatchKey(namespace, matchID string) string {
	return fmt.Sprintf("arena:%s:match:%s", namespace, matchID)
}

// MatchKeyPrefix returns the key prefix shared by every match in a namespace.
func MatchKeyPrefix(namespace string) string {
	return fmt.Sprintf("arena:%s:match:", namespace)
}

// MatchEventsChannel returns the Pub/Sub channel that carries saved records.
func MatchEventsChannel(namespace string) string {
	return fmt.Sprintf("arena:%s:match_events", namespace)
}
