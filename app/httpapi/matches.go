package httpapi

import (
	"context"
	"net/http"

	challengedb "github.com/UziB26/leagueladder-sub002/app/modules/challenge/infrastructure/repositories"
	ledgerservice "github.com/UziB26/leagueladder-sub002/app/modules/ledger/application"
	matchservice "github.com/UziB26/leagueladder-sub002/app/modules/match/application"
	matchdomain "github.com/UziB26/leagueladder-sub002/app/modules/match/domain"
	matchdb "github.com/UziB26/leagueladder-sub002/app/modules/match/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/google/uuid"
)

type reportMatchRequest struct {
	ChallengeID   *uuid.UUID `json:"challenge_id"`
	OpponentID    uuid.UUID  `json:"opponent_id"`
	ReporterScore int        `json:"reporter_score"`
	OpponentScore int        `json:"opponent_score"`
	PlayedAt      string     `json:"played_at"`
}

type disputeMatchRequest struct {
	ProposedScore1 int    `json:"proposed_score1"`
	ProposedScore2 int    `json:"proposed_score2"`
	Reason         string `json:"reason"`
}

type resolveMatchRequest struct {
	Score1 int    `json:"score1"`
	Score2 int    `json:"score2"`
	Reason string `json:"reason"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type ratingChangeView struct {
	PlayerID  uuid.UUID `json:"player_id"`
	OldRating int       `json:"old_rating"`
	NewRating int       `json:"new_rating"`
	Change    int       `json:"change"`
	Outcome   string    `json:"outcome"`
}

type transitionResponse struct {
	Match     *matchdb.Match         `json:"match"`
	Changes   []ratingChangeView     `json:"changes,omitempty"`
	Challenge *challengedb.Challenge `json:"challenge,omitempty"`
}

func viewTransition(t *matchservice.Transition) transitionResponse {
	out := transitionResponse{Match: t.Match, Challenge: t.Challenge}
	if t.Ledger != nil {
		out.Changes = viewChanges(t.Ledger.Changes)
	}
	return out
}

func viewChanges(changes []ledgerservice.PlayerChange) []ratingChangeView {
	out := make([]ratingChangeView, 0, len(changes))
	for _, c := range changes {
		out = append(out, ratingChangeView{
			PlayerID:  c.PlayerID,
			OldRating: c.OldRating,
			NewRating: c.NewRating,
			Change:    c.Change,
			Outcome:   string(c.Outcome),
		})
	}
	return out
}

func (a *api) reportMatch(w http.ResponseWriter, r *http.Request) {
	act, err := requestActor(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	leagueID, err := pathUUID(r, "leagueID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req reportMatchRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	m, err := a.svc.Matches.ReportScore(r.Context(), act, matchservice.ReportRequest{
		LeagueID:      leagueID,
		ChallengeID:   req.ChallengeID,
		OpponentID:    req.OpponentID,
		ReporterScore: req.ReporterScore,
		OpponentScore: req.OpponentScore,
		PlayedAt:      req.PlayedAt,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, m)
}

func (a *api) getMatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "matchID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	m, err := a.svc.Matches.Get(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, m)
}

func (a *api) listMatches(w http.ResponseWriter, r *http.Request) {
	leagueID, err := pathUUID(r, "leagueID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	filter := matchdb.ListFilter{LeagueID: &leagueID}
	if filter.PlayerID, err = queryUUID(r, "player_id"); err != nil {
		a.writeError(w, r, err)
		return
	}
	if filter.Limit, err = queryLimit(r); err != nil {
		a.writeError(w, r, err)
		return
	}
	for _, raw := range splitList(r.URL.Query().Get("status")) {
		filter.Statuses = append(filter.Statuses, matchdomain.Status(raw))
	}
	list, err := a.svc.Matches.List(r.Context(), filter)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, list)
}

func (a *api) confirmMatch(w http.ResponseWriter, r *http.Request) {
	act, err := requestActor(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	id, err := pathUUID(r, "matchID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	t, err := a.svc.Matches.Confirm(r.Context(), act, id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, viewTransition(t))
}

func (a *api) disputeMatch(w http.ResponseWriter, r *http.Request) {
	act, err := requestActor(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	id, err := pathUUID(r, "matchID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req disputeMatchRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	d, err := a.svc.Matches.Dispute(r.Context(), act, id, matchservice.DisputeRequest{
		ProposedScore1: req.ProposedScore1,
		ProposedScore2: req.ProposedScore2,
		Reason:         req.Reason,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, d)
}

func (a *api) latestDispute(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "matchID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	d, err := a.svc.Matches.LatestDispute(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, d)
}

func (a *api) resolveDispute(w http.ResponseWriter, r *http.Request) {
	act, err := requestActor(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	id, err := pathUUID(r, "matchID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req resolveMatchRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	t, err := a.svc.Matches.ResolveDispute(r.Context(), act, id, matchservice.ResolveRequest{
		Score1: req.Score1,
		Score2: req.Score2,
		Reason: req.Reason,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, viewTransition(t))
}

func (a *api) voidMatch(w http.ResponseWriter, r *http.Request) {
	a.adminTransition(w, r, a.svc.Matches.Void)
}

func (a *api) unvoidMatch(w http.ResponseWriter, r *http.Request) {
	a.adminTransition(w, r, a.svc.Matches.Unvoid)
}

func (a *api) adminTransition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, a actor.Actor, id uuid.UUID, reason string) (*matchservice.Transition, error)) {
	act, err := requestActor(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	id, err := pathUUID(r, "matchID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req reasonRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, r, err)
			return
		}
	}
	t, err := fn(r.Context(), act, id, req.Reason)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, viewTransition(t))
}
