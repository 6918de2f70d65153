package matchdb

import (
	"context"
	"errors"

	"github.com/UziB26/leagueladder-sub002/app/shared/txguard"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SectionKind identifies match sections in persisted backups.
const SectionKind = "match.row"

var _ txguard.Section = (*Section)(nil)

// Section guards a match row and its most recent dispute.
type Section struct {
	repo Repository

	MatchID  uuid.UUID `json:"match_id"`
	Snapshot *Match    `json:"snapshot,omitempty"`
	Dispute  *Dispute  `json:"dispute,omitempty"`
}

// NewSection creates a section for a match.
func NewSection(repo Repository, matchID uuid.UUID) *Section {
	return &Section{repo: repo, MatchID: matchID}
}

// SectionFactory returns a factory for decoding persisted sections.
func SectionFactory(repo Repository) func() txguard.Section {
	return func() txguard.Section { return &Section{repo: repo} }
}

func (s *Section) Kind() string { return SectionKind }

func (s *Section) Capture(ctx context.Context, db bun.IDB) error {
	m, err := s.repo.Get(ctx, db, s.MatchID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.Snapshot = nil
			return nil
		}
		return err
	}
	s.Snapshot = m

	d, err := s.repo.LatestDispute(ctx, db, s.MatchID)
	switch {
	case errors.Is(err, ErrNotFound):
		s.Dispute = nil
	case err != nil:
		return err
	default:
		s.Dispute = d
	}
	return nil
}

func (s *Section) Restore(ctx context.Context, db bun.IDB, opID uuid.UUID) error {
	if s.Dispute != nil {
		if err := s.repo.RestoreDisputeIfWrittenBy(ctx, db, s.Dispute, opID); err != nil {
			return err
		}
	}
	if s.Snapshot == nil {
		return nil
	}
	return s.repo.RestoreIfWrittenBy(ctx, db, s.Snapshot, opID)
}
