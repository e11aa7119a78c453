package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opsdeck/opsdeck/pkg/appstate"
	"github.com/opsdeck/opsdeck/pkg/connect"
	"github.com/opsdeck/opsdeck/pkg/entity"
	apperrors "github.com/opsdeck/opsdeck/pkg/errors"
	"github.com/opsdeck/opsdeck/pkg/flow"
	"github.com/opsdeck/opsdeck/pkg/layout"
	"github.com/opsdeck/opsdeck/pkg/transport"
)

type graphResponse struct {
	Nodes   []flow.Node      `json:"nodes"`
	Edges   []flow.Edge      `json:"edges"`
	Backlog []*entity.Record `json:"backlog"`
}

// handleGraph returns the current derived view. While a connection gesture
// is pending its provisional edge rides along, visually distinct, so the UI
// renders it without a second request.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	view, err := s.currentView(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	resp := graphResponse{Nodes: view.Nodes, Edges: view.Edges, Backlog: view.Backlog}
	if edge, ok := s.workflow.ProvisionalEdge(); ok {
		resp.Edges = append(resp.Edges, edge)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBacklog(w http.ResponseWriter, r *http.Request) {
	view, err := s.currentView(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"backlog": view.Backlog})
}

type dropRequest struct {
	ZoneID  string            `json:"zone_id"`
	Payload transport.Payload `json:"payload"`
}

func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	var req dropRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := apperrors.ValidateZoneID(req.ZoneID); err != nil {
		respondError(w, err)
		return
	}

	res, err := s.router.Dispatch(r.Context(), req.ZoneID, req.Payload)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type connectRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	source, err := parseNodeID(req.Source)
	if err != nil {
		respondError(w, err)
		return
	}
	target, err := parseNodeID(req.Target)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := s.workflow.Begin(source, target); err != nil {
		respondError(w, mapWorkflowErr(err))
		return
	}

	edge, _ := s.workflow.ProvisionalEdge()
	respondJSON(w, http.StatusOK, map[string]any{
		"state":            "pending",
		"provisional_edge": edge,
	})
}

type resolveRequest struct {
	Choice string `json:"choice"`
}

func (s *Server) handleConnectResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	// Capture the endpoints before Resolve clears them so the response can
	// name the committed edge id for optimistic reconciliation.
	source, target, pending := s.workflow.Pending()
	choice := connect.Choice(req.Choice)

	linkIDs, err := s.workflow.Resolve(r.Context(), choice)
	if err != nil {
		respondError(w, mapWorkflowErr(err))
		return
	}

	resp := map[string]any{"state": "idle", "link_ids": linkIDs}
	if pending {
		if edgeID, ok := connect.CommittedEdgeID(choice, source, target); ok {
			resp["edge_id"] = edgeID
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

type confirmRequest struct {
	Time string `json:"time,omitempty"`
}

func (s *Server) handleScheduleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := apperrors.ValidateTimeOfDay(req.Time); err != nil {
		respondError(w, err)
		return
	}

	res, err := s.router.ConfirmSchedule(r.Context(), req.Time)
	if errors.Is(err, appstate.ErrNoPendingSchedule) {
		respondError(w, apperrors.New(apperrors.ErrCodeNoPendingGesture, "no schedule confirmation is open"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleScheduleDismiss(w http.ResponseWriter, r *http.Request) {
	s.router.DismissSchedule()
	respondJSON(w, http.StatusOK, map[string]string{"state": "dismissed"})
}

func (s *Server) handleSchedulePending(w http.ResponseWriter, r *http.Request) {
	pending, ok := s.state.PendingSchedule()
	if !ok {
		respondError(w, apperrors.New(apperrors.ErrCodeNotFound, "no schedule confirmation is open"))
		return
	}
	respondJSON(w, http.StatusOK, pending)
}

type layoutRequest struct {
	Direction string `json:"direction"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := apperrors.ValidateDirection(req.Direction); err != nil {
		respondError(w, err)
		return
	}

	view, err := s.sync.Rebuild(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	repositioned, err := s.engine.Run(r.Context(), view, layout.Direction(req.Direction))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"repositioned": repositioned})
}

func (s *Server) handleStashList(w http.ResponseWriter, r *http.Request) {
	items, err := s.state.Stash().List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleStashClear(w http.ResponseWriter, r *http.Request) {
	if err := s.state.Stash().Clear(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStashRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.state.Stash().Remove(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseNodeID turns a canvas node id ("project-3") into an entity ref.
func parseNodeID(nodeID string) (entity.Ref, error) {
	typ, id, err := apperrors.ParseEntityRef(nodeID)
	if err != nil {
		return entity.Ref{}, err
	}
	return entity.Ref{Type: entity.Type(typ), ID: id}, nil
}

// mapWorkflowErr attaches API error codes to the workflow's sentinels.
func mapWorkflowErr(err error) error {
	switch {
	case errors.Is(err, connect.ErrAlreadyPending):
		return apperrors.Wrap(apperrors.ErrCodeGesturePending, err, "a connection is already pending")
	case errors.Is(err, connect.ErrNotPending):
		return apperrors.Wrap(apperrors.ErrCodeNoPendingGesture, err, "no connection is pending")
	case errors.Is(err, connect.ErrSelfConnection):
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "cannot connect an entity to itself")
	case errors.Is(err, connect.ErrUnknownChoice):
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "unknown connection choice")
	}
	return err
}
