// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	service "namearena/internal/app"
	"namearena/internal/domain/model"
	"namearena/internal/domain/sorter"
)

// TournamentsHandler handles tournament lifecycle requests.
type TournamentsHandler struct {
	deps Dependencies
}

// NewTournamentsHandler creates a new tournaments handler.
func NewTournamentsHandler(deps Dependencies) *TournamentsHandler {
	return &TournamentsHandler{deps: deps}
}

// createRequest mirrors the request schema for POST /tournaments.
type createRequest struct {
	Names []string `json:"names"`
}

func (c createRequest) validate() error {
	if len(c.Names) < 2 {
		return errors.New("need at least two names")
	}
	for _, n := range c.Names {
		if strings.TrimSpace(n) == "" {
			return errors.New("blank name")
		}
	}
	return nil
}

// voteRequest mirrors the request schema for POST /tournaments/{id}/votes.
type voteRequest struct {
	VoteID  string `json:"vote_id,omitempty"`
	Outcome string `json:"outcome"`
}

func (v voteRequest) validate() error {
	if !model.Outcome(v.Outcome).Valid() {
		return errors.New("unrecognized outcome")
	}
	return nil
}

type voteResponse struct {
	Status    string     `json:"status"`
	Duplicate bool       `json:"duplicate"`
	Finished  bool       `json:"finished"`
	Next      *MatchView `json:"next,omitempty"`
}

type standingsResponse struct {
	SessionID string                `json:"session_id"`
	Finished  bool                  `json:"finished"`
	Standings []model.FinalStanding `json:"standings"`
}

// HandleCreate handles POST /tournaments requests.
func (h *TournamentsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_tournament"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	mv, err := h.deps.CreateTournament(r.Context(), req.Names)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTooManyItems),
			errors.Is(err, sorter.ErrTooFewItems),
			errors.Is(err, sorter.ErrDuplicateItem):
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}
	writeJSON(w, http.StatusCreated, mv)
}

// HandleSession dispatches /tournaments/{id}/{action} requests.
func (h *TournamentsHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.session"
	rest := strings.TrimPrefix(r.URL.Path, "/tournaments/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	sessionID, action := parts[0], parts[1]

	switch {
	case action == "match" && r.Method == http.MethodGet:
		h.handleMatch(w, r, sessionID)
	case action == "votes" && r.Method == http.MethodPost:
		h.handleVote(w, r, sessionID)
	case action == "undo" && r.Method == http.MethodPost:
		h.handleUndo(w, r, sessionID)
	case action == "standings" && r.Method == http.MethodGet:
		h.handleStandings(w, r, sessionID)
	default:
		http.NotFound(w, r)
	}
}

func (h *TournamentsHandler) handleMatch(w http.ResponseWriter, r *http.Request, sessionID string) {
	const op = "api.get_match"
	mv, ok, err := h.deps.NextMatch(r.Context(), sessionID)
	if err != nil {
		writeSessionError(w, op, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, voteResponse{Status: "finished", Finished: true})
		return
	}
	writeJSON(w, http.StatusOK, mv)
}

func (h *TournamentsHandler) handleVote(w http.ResponseWriter, r *http.Request, sessionID string) {
	const op = "api.post_vote"
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.SubmitVote(r.Context(), sessionID, req.VoteID, model.Outcome(req.Outcome))
	if err != nil {
		writeSessionError(w, op, err)
		return
	}

	status := "accepted"
	if res.Duplicate {
		status = "duplicate"
	}
	if res.Finished {
		status = "finished"
	}
	writeJSON(w, http.StatusOK, voteResponse{
		Status:    status,
		Duplicate: res.Duplicate,
		Finished:  res.Finished,
		Next:      res.Next,
	})
}

func (h *TournamentsHandler) handleUndo(w http.ResponseWriter, r *http.Request, sessionID string) {
	const op = "api.post_undo"
	mv, err := h.deps.Undo(r.Context(), sessionID)
	if err != nil {
		writeSessionError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, mv)
}

func (h *TournamentsHandler) handleStandings(w http.ResponseWriter, r *http.Request, sessionID string) {
	const op = "api.get_standings"
	standings, finished, err := h.deps.Standings(r.Context(), sessionID)
	if err != nil {
		writeSessionError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, standingsResponse{
		SessionID: sessionID,
		Finished:  finished,
		Standings: standings,
	})
}

// writeSessionError maps orchestration errors onto HTTP statuses.
func writeSessionError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, service.ErrSessionFinished):
		writeError(w, http.StatusConflict, "finished", Wrap(op, err))
	case errors.Is(err, service.ErrNothingToUndo):
		writeError(w, http.StatusConflict, "nothing_to_undo", Wrap(op, err))
	case errors.Is(err, service.ErrInvalidOutcome):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
