package leagueservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	leaguedb "github.com/UziB26/leagueladder-sub002/app/modules/league/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/UziB26/leagueladder-sub002/app/shared/apperrors"
	"github.com/UziB26/leagueladder-sub002/app/shared/attr"
	"github.com/UziB26/leagueladder-sub002/app/shared/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/xuri/excelize/v2"
)

// RosterImport summarises an ImportRoster run.
type RosterImport struct {
	PlayersCreated int      `json:"players_created"`
	MembersAdded   int      `json:"members_added"`
	Skipped        []string `json:"skipped,omitempty"`
}

// ImportRoster reads a workbook whose first sheet lists players, one per row,
// with a "Display Name" column and an optional "Contact" column. Unknown
// players are registered; every listed player becomes an active member.
func (s *LeagueService) ImportRoster(ctx context.Context, a actor.Actor, leagueID uuid.UUID, r io.Reader) (*RosterImport, error) {
	rows, err := readRoster(r)
	if err != nil {
		return nil, apperrors.Validation("invalid roster workbook: %v", err)
	}

	importTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*RosterImport, error], error) {
		if !a.IsAdmin {
			return results.FailureResult[*RosterImport, error](apperrors.Forbidden("importing a roster requires an admin")), nil
		}
		if _, err := s.repo.GetLeague(ctx, db, leagueID); err != nil {
			if errors.Is(err, leaguedb.ErrNotFound) {
				return results.FailureResult[*RosterImport, error](apperrors.NotFound("league %s not found", leagueID)), nil
			}
			return results.OperationResult[*RosterImport, error]{}, err
		}

		out := &RosterImport{}
		for _, row := range rows {
			if validName("display name", row.name) != nil {
				out.Skipped = append(out.Skipped, row.name)
				continue
			}

			player, err := s.repo.GetPlayerByName(ctx, db, row.name)
			switch {
			case errors.Is(err, leaguedb.ErrNotFound):
				player = &leaguedb.Player{ID: uuid.New(), DisplayName: row.name, Contact: row.contact}
				if err := s.repo.CreatePlayer(ctx, db, player); err != nil {
					return results.OperationResult[*RosterImport, error]{}, err
				}
				out.PlayersCreated++
			case err != nil:
				return results.OperationResult[*RosterImport, error]{}, err
			}

			if err := s.repo.UpsertMembership(ctx, db, &leaguedb.Membership{
				LeagueID: leagueID,
				PlayerID: player.ID,
				Active:   true,
			}); err != nil {
				return results.OperationResult[*RosterImport, error]{}, err
			}
			out.MembersAdded++
		}

		s.logger.InfoContext(ctx, "Roster imported",
			attr.UUID("league_id", leagueID),
			attr.Int("players_created", out.PlayersCreated),
			attr.Int("members_added", out.MembersAdded),
			attr.Int("skipped", len(out.Skipped)),
		)
		return results.SuccessResult[*RosterImport, error](out), nil
	}

	return unwrap(withTelemetry(s, ctx, "ImportRoster", leagueID.String(), func(ctx context.Context) (results.OperationResult[*RosterImport, error], error) {
		return runInTx(s, ctx, importTx)
	}))
}

type rosterRow struct {
	name    string
	contact string
}

func readRoster(r io.Reader) ([]rosterRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("roster sheet is empty")
	}

	nameCol, contactCol := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "display name", "name", "player":
			nameCol = i
		case "contact", "email":
			contactCol = i
		}
	}
	if nameCol < 0 {
		return nil, fmt.Errorf("missing %q column", "Display Name")
	}

	out := make([]rosterRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if nameCol >= len(row) {
			continue
		}
		rr := rosterRow{name: strings.TrimSpace(row[nameCol])}
		if rr.name == "" {
			continue
		}
		if contactCol >= 0 && contactCol < len(row) {
			rr.contact = strings.TrimSpace(row[contactCol])
		}
		out = append(out, rr)
	}
	return out, nil
}
