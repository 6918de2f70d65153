package httpapi

import (
	"net/http"
	"strconv"
)

type createLeagueRequest struct {
	Name     string `json:"name"`
	GameType string `json:"game_type"`
}

type registerPlayerRequest struct {
	DisplayName string `json:"display_name"`
	Contact     string `json:"contact"`
}

type activeRequest struct {
	Active bool `json:"active"`
}

func (a *api) createLeague(w http.ResponseWriter, r *http.Request) {
	act, err := requestActor(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req createLeagueRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	league, err := a.svc.Leagues.CreateLeague(r.Context(), act, req.Name, req.GameType)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, league)
}

func (a *api) listLeagues(w http.ResponseWriter, r *http.Request) {
	leagues, err := a.svc.Leagues.ListLeagues(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, leagues)
}

func (a *api) getLeague(w http.ResponseWriter, r *http.Request) {
	leagueID, err := pathUUID(r, "leagueID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	league, err := a.svc.Leagues.GetLeague(r.Context(), leagueID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, league)
}

func (a *api) registerPlayer(w http.ResponseWriter, r *http.Request) {
	var req registerPlayerRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	player, err := a.svc.Leagues.RegisterPlayer(r.Context(), req.DisplayName, req.Contact)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, player)
}

func (a *api) getPlayer(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathUUID(r, "playerID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	player, err := a.svc.Leagues.GetPlayer(r.Context(), playerID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, player)
}

func (a *api) joinLeague(w http.ResponseWriter, r *http.Request) {
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
	m, err := a.svc.Leagues.JoinLeague(r.Context(), act, leagueID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, m)
}

func (a *api) setMembershipActive(w http.ResponseWriter, r *http.Request) {
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
	playerID, err := pathUUID(r, "playerID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req activeRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.svc.Leagues.SetMembershipActive(r.Context(), act, leagueID, playerID, req.Active); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) listMembers(w http.ResponseWriter, r *http.Request) {
	leagueID, err := pathUUID(r, "leagueID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	members, err := a.svc.Leagues.ListMembers(r.Context(), leagueID, activeOnly)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, members)
}

// importRoster accepts an xlsx workbook as the raw request body.
func (a *api) importRoster(w http.ResponseWriter, r *http.Request) {
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
	res, err := a.svc.Leagues.ImportRoster(r.Context(), act, leagueID, http.MaxBytesReader(w, r.Body, 10<<20))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, res)
}
