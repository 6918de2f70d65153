package ledgerdomain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// AdjustmentRefPrefix marks ledger rows written by admin overrides rather
// than by a match.
const AdjustmentRefPrefix = "adj_"

// MatchRef returns the ledger reference for a match.
func MatchRef(matchID uuid.UUID) string {
	return matchID.String()
}

// NewAdjustmentRef returns a unique synthetic reference for an admin
// adjustment.
func NewAdjustmentRef() (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate adjustment reference: %w", err)
	}
	return AdjustmentRefPrefix + id, nil
}

// IsAdjustmentRef reports whether ref was produced by NewAdjustmentRef.
func IsAdjustmentRef(ref string) bool {
	return strings.HasPrefix(ref, AdjustmentRefPrefix)
}
