package httpapi

import (
	"bytes"
	"net/http"
	"time"

	ledgerservice "github.com/UziB26/leagueladder-sub002/app/modules/ledger/application"
	ledgerdomain "github.com/UziB26/leagueladder-sub002/app/modules/ledger/domain"
	"github.com/google/uuid"
)

type setRatingRequest struct {
	Rating int    `json:"rating"`
	Reason string `json:"reason"`
}

type setStatsRequest struct {
	Wins            *int   `json:"wins"`
	Losses          *int   `json:"losses"`
	Draws           *int   `json:"draws"`
	GamesPlayed     *int   `json:"games_played"`
	AllowDivergence bool   `json:"allow_divergence"`
	Reason          string `json:"reason"`
}

type ratingAdjustmentResponse struct {
	PlayerID  uuid.UUID `json:"player_id"`
	LeagueID  uuid.UUID `json:"league_id"`
	MatchRef  string    `json:"match_ref"`
	OldRating int       `json:"old_rating"`
	NewRating int       `json:"new_rating"`
	Change    int       `json:"change"`
	At        time.Time `json:"at"`
}

type recordView struct {
	GamesPlayed int `json:"games_played"`
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`
	Draws       int `json:"draws"`
}

func viewRecord(r ledgerdomain.Record) recordView {
	return recordView{GamesPlayed: r.GamesPlayed, Wins: r.Wins, Losses: r.Losses, Draws: r.Draws}
}

type statsAdjustmentResponse struct {
	PlayerID uuid.UUID  `json:"player_id"`
	LeagueID uuid.UUID  `json:"league_id"`
	Before   recordView `json:"before"`
	After    recordView `json:"after"`
	Diverged bool       `json:"diverged"`
}

// leaguePlayer reads the league and player path parameters.
func leaguePlayer(r *http.Request) (leagueID, playerID uuid.UUID, err error) {
	if leagueID, err = pathUUID(r, "leagueID"); err != nil {
		return
	}
	playerID, err = pathUUID(r, "playerID")
	return
}

func (a *api) standings(w http.ResponseWriter, r *http.Request) {
	leagueID, err := pathUUID(r, "leagueID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	rows, err := a.svc.Ledger.GetStandings(r.Context(), leagueID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, rows)
}

func (a *api) getRating(w http.ResponseWriter, r *http.Request) {
	leagueID, playerID, err := leaguePlayer(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	rating, err := a.svc.Ledger.GetRating(r.Context(), playerID, leagueID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, rating)
}

func (a *api) ratingHistory(w http.ResponseWriter, r *http.Request) {
	leagueID, playerID, err := leaguePlayer(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	history, err := a.svc.Ledger.GetRatingHistory(r.Context(), playerID, leagueID, limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, history)
}

func (a *api) ratingChart(w http.ResponseWriter, r *http.Request) {
	leagueID, playerID, err := leaguePlayer(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	png, err := a.svc.Ledger.RenderRatingChart(r.Context(), playerID, leagueID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (a *api) exportLeague(w http.ResponseWriter, r *http.Request) {
	leagueID, err := pathUUID(r, "leagueID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := a.svc.Ledger.ExportLeague(r.Context(), leagueID, &buf); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="league-`+leagueID.String()+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (a *api) setRating(w http.ResponseWriter, r *http.Request) {
	act, err := requestActor(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	leagueID, playerID, err := leaguePlayer(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req setRatingRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	adj, err := a.svc.Ledger.SetRating(r.Context(), act, ledgerservice.SetRatingRequest{
		PlayerID: playerID,
		LeagueID: leagueID,
		Rating:   req.Rating,
		Reason:   req.Reason,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, ratingAdjustmentResponse{
		PlayerID:  adj.PlayerID,
		LeagueID:  adj.LeagueID,
		MatchRef:  adj.MatchRef,
		OldRating: adj.OldRating,
		NewRating: adj.NewRating,
		Change:    adj.Change,
		At:        adj.At,
	})
}

func (a *api) setStats(w http.ResponseWriter, r *http.Request) {
	act, err := requestActor(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	leagueID, playerID, err := leaguePlayer(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req setStatsRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	adj, err := a.svc.Ledger.SetStats(r.Context(), act, ledgerservice.SetStatsRequest{
		PlayerID: playerID,
		LeagueID: leagueID,
		Patch: ledgerdomain.StatsPatch{
			Wins:        req.Wins,
			Losses:      req.Losses,
			Draws:       req.Draws,
			GamesPlayed: req.GamesPlayed,
		},
		AllowDivergence: req.AllowDivergence,
		Reason:          req.Reason,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, statsAdjustmentResponse{
		PlayerID: adj.PlayerID,
		LeagueID: adj.LeagueID,
		Before:   viewRecord(adj.Before),
		After:    viewRecord(adj.After),
		Diverged: adj.Diverged,
	})
}

func (a *api) adminActions(w http.ResponseWriter, r *http.Request) {
	leagueID, err := pathUUID(r, "leagueID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	actions, err := a.svc.Ledger.ListAdminActions(r.Context(), leagueID, limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, actions)
}

func (a *api) auditRecords(w http.ResponseWriter, r *http.Request) {
	rows, err := a.svc.Ledger.AuditRecords(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, rows)
}
