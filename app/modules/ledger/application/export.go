package ledgerservice

import (
	"context"
	"fmt"
	"io"
	"time"

	ledgerdb "github.com/UziB26/leagueladder-sub002/app/modules/ledger/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the league export workbook.
const (
	SheetStandings    = "Standings"
	SheetLedger       = "Ledger"
	SheetAdminActions = "Admin Actions"
)

// ExportLeague writes an XLSX workbook with the league's standings, its full
// ledger and its admin audit trail.
func (s *LedgerService) ExportLeague(ctx context.Context, leagueID uuid.UUID, w io.Writer) error {
	standings, err := s.repo.ListStandings(ctx, nil, leagueID)
	if err != nil {
		return err
	}
	ledger, err := s.repo.ListLedger(ctx, nil, leagueID)
	if err != nil {
		return err
	}
	actions, err := s.repo.ListAdminActions(ctx, nil, leagueID, 0)
	if err != nil {
		return err
	}

	f, err := BuildLeagueWorkbook(standings, ledger, actions)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// BuildLeagueWorkbook lays out the export sheets.
func BuildLeagueWorkbook(standings []ledgerdb.PlayerRating, ledger []ledgerdb.RatingUpdate, actions []ledgerdb.AdminAction) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetStandings); err != nil {
		return nil, fmt.Errorf("failed to name standings sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetLedger); err != nil {
		return nil, fmt.Errorf("failed to create ledger sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetAdminActions); err != nil {
		return nil, fmt.Errorf("failed to create admin actions sheet: %w", err)
	}

	standingRows := [][]interface{}{{"Rank", "Player ID", "Rating", "Games Played", "Wins", "Losses", "Draws"}}
	for i, r := range standings {
		standingRows = append(standingRows, []interface{}{
			i + 1, r.PlayerID.String(), r.Rating, r.GamesPlayed, r.Wins, r.Losses, r.Draws,
		})
	}

	ledgerRows := [][]interface{}{{"Recorded At", "Match Ref", "Player ID", "Old Rating", "New Rating", "Change"}}
	for _, u := range ledger {
		ledgerRows = append(ledgerRows, []interface{}{
			u.CreatedAt.UTC().Format(time.RFC3339), u.MatchRef, u.PlayerID.String(), u.OldRating, u.NewRating, u.Change,
		})
	}

	actionRows := [][]interface{}{{"Recorded At", "Actor ID", "Action", "Player ID", "Match Ref", "Before", "After", "Reason"}}
	for _, a := range actions {
		actionRows = append(actionRows, []interface{}{
			a.CreatedAt.UTC().Format(time.RFC3339), a.ActorID.String(), a.Action, optionalID(a.PlayerID),
			a.MatchRef, string(a.Before), string(a.After), a.Reason,
		})
	}

	for sheet, rows := range map[string][][]interface{}{
		SheetStandings:    standingRows,
		SheetLedger:       ledgerRows,
		SheetAdminActions: actionRows,
	} {
		if err := writeRows(f, sheet, rows); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return f.SetColWidth(sheet, "A", "H", 20)
}

func optionalID(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}
