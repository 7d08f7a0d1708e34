// Package resolver expands short match-ID prefixes into full IDs.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dyluth/arena/pkg/ledger"
)

// MinShortIDLength is the minimum required length for short ID prefixes.
const MinShortIDLength = 6

// maxListed caps how many candidates an ambiguity message lists.
const maxListed = 10

// ResolveMatchID resolves a short ID prefix to a full match ID.
//
// A full UUID is checked for existence and returned as-is. Shorter input
// must be at least MinShortIDLength characters and match exactly one stored
// match.
func ResolveMatchID(ctx context.Context, client *ledger.Client, shortID string) (string, error) {
	if _, err := uuid.Parse(shortID); err == nil && len(shortID) == 36 {
		if _, err := client.GetMatch(ctx, shortID); err != nil {
			if ledger.IsNotFound(err) {
				return "", &NotFoundError{ShortID: shortID}
			}
			return "", fmt.Errorf("failed to verify match existence: %w", err)
		}
		return shortID, nil
	}

	if len(shortID) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(shortID))
	}

	matches, err := client.ScanMatches(ctx, strings.ToLower(shortID))
	if err != nil {
		return "", fmt.Errorf("failed to search for match: %w", err)
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: shortID}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: shortID, Matches: matches}
	}
}

// NotFoundError indicates no match has the given ID or prefix.
type NotFoundError struct {
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no matches found matching '%s'", e.ShortID)
}

// AmbiguousError indicates several matches share the prefix.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d matches", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError lists the candidates (up to ten) for the user.
func FormatAmbiguousError(err *AmbiguousError) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ambiguous short ID '%s' matches %d matches:\n", err.ShortID, len(err.Matches))

	shown := len(err.Matches)
	if shown > maxListed {
		shown = maxListed
	}
	for _, id := range err.Matches[:shown] {
		fmt.Fprintf(&sb, "  %s\n", id)
	}
	if len(err.Matches) > maxListed {
		fmt.Fprintf(&sb, "  ...and %d more\n", len(err.Matches)-maxListed)
	}

	sb.WriteString("\nUse a longer prefix to identify the match.")
	return sb.String()
}

// IsNotFoundError reports whether err is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsAmbiguousError reports whether err is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	_, ok := err.(*AmbiguousError)
	return ok
}
