package httpapi

import (
	"context"
	"net/http"
	"strings"

	challengedomain "github.com/UziB26/leagueladder-sub002/app/modules/challenge/domain"
	challengedb "github.com/UziB26/leagueladder-sub002/app/modules/challenge/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/UziB26/leagueladder-sub002/app/shared/apperrors"
	"github.com/google/uuid"
)

type createChallengeRequest struct {
	ChallengeeID uuid.UUID `json:"challengee_id"`
}

func (a *api) createChallenge(w http.ResponseWriter, r *http.Request) {
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
	var req createChallengeRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	c, err := a.svc.Challenges.Create(r.Context(), act, leagueID, req.ChallengeeID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, c)
}

func (a *api) getChallenge(w http.ResponseWriter, r *http.Request) {
	act, err := requestActor(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	id, err := pathUUID(r, "challengeID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	c, err := a.svc.Challenges.Get(r.Context(), act, id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, c)
}

type respondFunc func(ctx context.Context, a actor.Actor, id uuid.UUID) (*challengedb.Challenge, error)

func (a *api) respond(fn respondFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := requestActor(r)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		id, err := pathUUID(r, "challengeID")
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		c, err := fn(r.Context(), act, id)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		a.writeJSON(w, http.StatusOK, c)
	}
}

func (a *api) acceptChallenge(w http.ResponseWriter, r *http.Request) {
	a.respond(a.svc.Challenges.Accept)(w, r)
}

func (a *api) declineChallenge(w http.ResponseWriter, r *http.Request) {
	a.respond(a.svc.Challenges.Decline)(w, r)
}

func (a *api) cancelChallenge(w http.ResponseWriter, r *http.Request) {
	a.respond(a.svc.Challenges.Cancel)(w, r)
}

// listChallenges lists a player's challenges. Non-admins may only list
// their own.
func (a *api) listChallenges(w http.ResponseWriter, r *http.Request) {
	act, err := requestActor(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	playerID, err := pathUUID(r, "playerID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if !act.IsAdmin && act.PlayerID != playerID {
		a.writeError(w, r, apperrors.Forbidden("cannot list another player's challenges"))
		return
	}

	filter := challengedb.ListFilter{}
	if filter.LeagueID, err = queryUUID(r, "league_id"); err != nil {
		a.writeError(w, r, err)
		return
	}
	if filter.Limit, err = queryLimit(r); err != nil {
		a.writeError(w, r, err)
		return
	}
	for _, raw := range splitList(r.URL.Query().Get("status")) {
		st := challengedomain.Status(raw)
		if !st.Valid() {
			a.writeError(w, r, apperrors.Validation("unknown challenge status %q", raw))
			return
		}
		filter.Statuses = append(filter.Statuses, st)
	}

	list, err := a.svc.Challenges.ListForPlayer(r.Context(), playerID, filter)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, list)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
