package challengedb

import (
	"context"
	"errors"

	"github.com/UziB26/leagueladder-sub002/app/shared/txguard"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SectionKind identifies challenge sections in persisted backups.
const SectionKind = "challenge.row"

var _ txguard.Section = (*Section)(nil)

// Section guards one challenge row.
type Section struct {
	repo Repository

	ChallengeID uuid.UUID  `json:"challenge_id"`
	Snapshot    *Challenge `json:"snapshot,omitempty"`
}

// NewSection creates a section for a challenge.
func NewSection(repo Repository, challengeID uuid.UUID) *Section {
	return &Section{repo: repo, ChallengeID: challengeID}
}

// SectionFactory returns a factory for decoding persisted sections.
func SectionFactory(repo Repository) func() txguard.Section {
	return func() txguard.Section { return &Section{repo: repo} }
}

func (s *Section) Kind() string { return SectionKind }

func (s *Section) Capture(ctx context.Context, db bun.IDB) error {
	c, err := s.repo.Get(ctx, db, s.ChallengeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.Snapshot = nil
			return nil
		}
		return err
	}
	s.Snapshot = c
	return nil
}

// Restore puts the captured row back. Guarded units never create
// challenges, so a missing snapshot leaves nothing to undo.
func (s *Section) Restore(ctx context.Context, db bun.IDB, opID uuid.UUID) error {
	if s.Snapshot == nil {
		return nil
	}
	return s.repo.RestoreIfWrittenBy(ctx, db, s.Snapshot, opID)
}
