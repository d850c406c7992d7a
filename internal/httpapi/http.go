// Package httpapi exposes the lobby and the player store over REST. Calls
// that read private cards or act at a table identify the caller by session
// token, never by a player id in the request.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"holdem-engine/holdem"
	"holdem-engine/internal/auth"
	"holdem-engine/internal/codec"
	"holdem-engine/internal/lobby"
	"holdem-engine/internal/store"
	"holdem-engine/internal/table"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type HTTPHandler struct {
	lobby *lobby.Lobby
	store store.Store
	auth  auth.Service
}

type errorResponse struct {
	Error string `json:"error"`
}

type createSessionRequest struct {
	Seats      []table.SeatRequest `json:"seats"`
	SmallBlind int64               `json:"small_blind"`
	BigBlind   int64               `json:"big_blind"`
	Seed       int64               `json:"seed"`
}

// PlayerID is optional; when set it must match the caller.
type actionRequest struct {
	PlayerID string `json:"player_id,omitempty"`
	Action   string `json:"action"`
	Amount   int64  `json:"amount"`
}

func NewHTTPHandler(lby *lobby.Lobby, st store.Store, authSvc auth.Service) *HTTPHandler {
	return &HTTPHandler{lobby: lby, store: st, auth: authSvc}
}

// Router builds the chi router. extra mounts more routes (e.g. the websocket
// gateway) on the same router.
func (h *HTTPHandler) Router(extra ...func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	auth.NewHTTPHandler(h.auth).Routes(r)
	r.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", h.handleListSessions)
		r.Post("/", h.handleCreateSession)
		r.Route("/{handle}", func(r chi.Router) {
			r.Get("/state", h.handleState)
			r.Get("/legal", h.handleLegal)
			r.Post("/actions", h.handleAction)
			r.Get("/result", h.handleResult)
			r.Post("/next", h.handleNextHand)
			r.Delete("/", h.handleClose)
		})
	})
	r.Get("/api/players/{id}", h.handleGetPlayer)
	r.Get("/api/players/{id}/hands", h.handleListHands)
	r.Get("/api/hands/{handID}", h.handleGetHand)

	for _, fn := range extra {
		fn(r)
	}
	return r
}

func (h *HTTPHandler) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sessions": h.lobby.Sessions()})
}

// handleCreateSession requires the caller to take one of the seats.
func (h *HTTPHandler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req createSessionRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	seated := false
	for _, st := range req.Seats {
		seated = seated || (st.ID == caller && st.Persona == "")
	}
	if !seated {
		writeError(w, http.StatusForbidden, "caller must take a seat")
		return
	}
	cfg := table.Config{SmallBlind: req.SmallBlind, BigBlind: req.BigBlind, Seed: req.Seed}
	handle, err := h.lobby.CreateSession(r.Context(), cfg, req.Seats)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"handle": handle})
}

// handleState shows the caller's own hole cards; anonymous callers get the
// spectator view.
func (h *HTTPHandler) handleState(w http.ResponseWriter, r *http.Request) {
	viewer := ""
	if auth.TokenFromRequest(r) != "" {
		caller, ok := h.caller(w, r)
		if !ok {
			return
		}
		viewer = caller
	}
	st, err := h.lobby.PublicState(handleParam(r), viewer)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, codec.StatePayload(st))
}

func (h *HTTPHandler) handleLegal(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.seatedCaller(w, r)
	if !ok {
		return
	}
	legal, err := h.lobby.LegalActions(handleParam(r), caller)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	kinds := make([]string, len(legal.Kinds))
	for i, k := range legal.Kinds {
		kinds[i] = k.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"actions":      kinds,
		"call_amount":  legal.CallAmount,
		"min_raise_to": legal.MinRaiseTo,
		"max_raise_to": legal.MaxRaiseTo,
	})
}

func (h *HTTPHandler) handleAction(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.seatedCaller(w, r)
	if !ok {
		return
	}
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PlayerID != "" && req.PlayerID != caller {
		writeError(w, http.StatusForbidden, "player_id does not match session token")
		return
	}
	kind, err := holdem.ParseActionKind(req.Action)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a := holdem.Action{Kind: kind}
	if kind == holdem.ActionRaise {
		a.Amount = req.Amount
	}
	handle := handleParam(r)
	if err := h.lobby.SubmitAction(r.Context(), handle, caller, a); err != nil {
		writeMappedError(w, err)
		return
	}
	st, err := h.lobby.PublicState(handle, caller)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, codec.StatePayload(st))
}

func (h *HTTPHandler) handleResult(w http.ResponseWriter, r *http.Request) {
	res, err := h.lobby.ShowdownResult(handleParam(r))
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, codec.ResultPayload(res))
}

func (h *HTTPHandler) handleNextHand(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.seatedCaller(w, r); !ok {
		return
	}
	handle := handleParam(r)
	if err := h.lobby.NextHand(r.Context(), handle); err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"handle": handle, "started": true})
}

func (h *HTTPHandler) handleClose(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.seatedCaller(w, r); !ok {
		return
	}
	if err := h.lobby.Close(handleParam(r)); err != nil {
		writeMappedError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	p, err := h.store.LoadPlayer(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *HTTPHandler) handleListHands(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	hands, err := h.store.ListHands(ctx, chi.URLParam(r, "id"), parseLimit(r.URL.Query().Get("limit")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query recent hands failed")
		return
	}
	items := make([]map[string]any, len(hands))
	for i, hr := range hands {
		items[i] = handSummary(hr)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// handleGetHand serves the replay tape, which holds every hole card, to the
// hand's own players only.
func (h *HTTPHandler) handleGetHand(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	hr, err := h.store.GetHand(ctx, chi.URLParam(r, "handID"))
	if err != nil {
		writeMappedError(w, err)
		return
	}
	if !slices.Contains(hr.Players, caller) {
		writeError(w, http.StatusForbidden, "not a player of this hand")
		return
	}
	out := handSummary(hr)
	if len(hr.Tape) > 0 {
		out["tape"] = json.RawMessage(hr.Tape)
	}
	writeJSON(w, http.StatusOK, out)
}

func handSummary(hr store.HandRecord) map[string]any {
	return map[string]any{
		"hand_id":   hr.HandID,
		"table_id":  hr.TableID,
		"played_at": hr.PlayedAt,
		"players":   hr.Players,
		"winners":   hr.Winners,
		"pot":       hr.Pot,
		"payouts":   hr.Payouts,
	}
}

// caller resolves the session token. On failure it has already written 401.
func (h *HTTPHandler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := auth.TokenFromRequest(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing session token")
		return "", false
	}
	playerID, ok := h.auth.ResolveSession(token)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid session token")
		return "", false
	}
	return playerID, true
}

// seatedCaller also requires a human seat at the session in the URL.
func (h *HTTPHandler) seatedCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	playerID, ok := h.caller(w, r)
	if !ok {
		return "", false
	}
	if _, err := h.lobby.HumanSeat(handleParam(r), playerID); err != nil {
		writeMappedError(w, err)
		return "", false
	}
	return playerID, true
}

func handleParam(r *http.Request) lobby.Handle {
	return lobby.Handle(chi.URLParam(r, "handle"))
}

// writeMappedError turns domain errors into status codes.
func writeMappedError(w http.ResponseWriter, err error) {
	var actionErr *holdem.ActionError
	switch {
	case errors.Is(err, lobby.ErrUnknownSession), errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, lobby.ErrNotSeated):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, holdem.ErrNotPlayersTurn),
		errors.Is(err, holdem.ErrHandNotOver),
		errors.Is(err, holdem.ErrHandOver),
		errors.Is(err, table.ErrHandInProgress),
		errors.Is(err, table.ErrNoHand):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &actionErr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, table.ErrInvalidSeatConfig), errors.Is(err, table.ErrNotEnoughPlayers):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, table.ErrTableClosed):
		writeError(w, http.StatusGone, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func parseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 20
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 20
	}
	if n > 100 {
		return 100
	}
	return n
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
