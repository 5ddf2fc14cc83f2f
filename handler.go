package blackjack

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/net/websocket"
)

// Handler exposes the Manager over HTTP and websockets.
type Handler struct {
	manager *Manager
	auth    *Authenticator
	hub     *Hub
	logger  *log.Logger
}

func NewHandler(manager *Manager, auth *Authenticator, hub *Hub, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{manager: manager, auth: auth, hub: hub, logger: logger}
}

func (h *Handler) Router() *httprouter.Router {
	r := httprouter.New()

	r.POST("/games", h.authed(h.createGame))
	r.GET("/games/:id", h.authed(h.getGame))
	r.GET("/games/:id/deck", h.authed(h.viewDeck))
	r.POST("/games/join/:code", h.authed(h.joinGame))
	r.POST("/games/start/:id", h.authed(h.startGame))
	r.POST("/games/restart/:id", h.authed(h.restartGame))
	r.POST("/games/leave/:id", h.authed(h.leaveGame))

	r.POST("/player-decks/ready/:id", h.authed(h.setReady))
	r.POST("/player-decks/draw/:id", h.authed(h.drawCard))
	r.POST("/player-decks/finish/:id", h.authed(h.endTurn))
	r.POST("/player-decks/stand/:id", h.authed(h.stand))
	r.POST("/player-decks/blackjack/:id", h.authed(h.declareBlackjack))
	r.GET("/player-decks/my-deck/:id", h.authed(h.myDeck))

	r.GET("/ws", h.authed(h.subscribe))

	return r
}

type authedHandle func(w http.ResponseWriter, r *http.Request, ps httprouter.Params, player PlayerID)

func (h *Handler) authed(fn authedHandle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		player, err := h.auth.Authenticate(r)
		if err != nil {
			writeError(w, err)
			return
		}
		fn(w, r, ps, player)
	}
}

func (h *Handler) createGame(w http.ResponseWriter, r *http.Request, _ httprouter.Params, player PlayerID) {
	view, err := h.manager.CreateGame(player)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Game created successfully", CreateGameData{Game: view})
}

func (h *Handler) getGame(w http.ResponseWriter, r *http.Request, ps httprouter.Params, player PlayerID) {
	view, err := h.manager.GetGame(ps.ByName("id"), player)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "Game retrieved successfully", GameData{Game: view})
}

func (h *Handler) viewDeck(w http.ResponseWriter, r *http.Request, ps httprouter.Params, player PlayerID) {
	deck, err := h.manager.ViewDeck(ps.ByName("id"), player)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "Deck retrieved successfully", DeckData{Deck: deck})
}

func (h *Handler) joinGame(w http.ResponseWriter, r *http.Request, ps httprouter.Params, player PlayerID) {
	view, err := h.manager.JoinGame(ps.ByName("code"), player)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "Joined game successfully", GameData{Game: view})
}

func (h *Handler) startGame(w http.ResponseWriter, r *http.Request, ps httprouter.Params, player PlayerID) {
	view, err := h.manager.StartGame(ps.ByName("id"), player)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "Game started successfully", GameData{Game: view})
}

func (h *Handler) restartGame(w http.ResponseWriter, r *http.Request, ps httprouter.Params, player PlayerID) {
	view, err := h.manager.RestartGame(ps.ByName("id"), player)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "Game restarted successfully", GameData{Game: view})
}

func (h *Handler) leaveGame(w http.ResponseWriter, r *http.Request, ps httprouter.Params, player PlayerID) {
	if err := h.manager.LeaveGame(ps.ByName("id"), player); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "Left game successfully", nil)
}

func (h *Handler) setReady(w http.ResponseWriter, r *http.Request, ps httprouter.Params, player PlayerID) {
	view, err := h.manager.SetReady(ps.ByName("id"), player)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "Player is ready", GameData{Game: view})
}

func (h *Handler) drawCard(w http.ResponseWriter, r *http.Request, ps httprouter.Params, player PlayerID) {
	card, hand, err := h.manager.DrawCard(ps.ByName("id"), player)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "Card drawn", DrawData{Card: card, Hand: hand})
}

func (h *Handler) endTurn(w http.ResponseWriter, r *http.Request, ps httprouter.Params, player PlayerID) {
	view, err := h.manager.EndTurn(ps.ByName("id"), player)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "Turn ended", GameData{Game: view})
}

func (h *Handler) stand(w http.ResponseWriter, r *http.Request, ps httprouter.Params, player PlayerID) {
	view, err := h.manager.Stand(ps.ByName("id"), player)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "Standing", GameData{Game: view})
}

func (h *Handler) declareBlackjack(w http.ResponseWriter, r *http.Request, ps httprouter.Params, player PlayerID) {
	view, err := h.manager.DeclareBlackjack(ps.ByName("id"), player)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "Blackjack!", GameData{Game: view})
}

func (h *Handler) myDeck(w http.ResponseWriter, r *http.Request, ps httprouter.Params, player PlayerID) {
	hand, err := h.manager.MyHand(ps.ByName("id"), player)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "Player deck retrieved successfully", HandData{Hand: hand})
}

// subscribe upgrades to a websocket that receives game_notify messages
// for the game named in the query, and runs any actions the client
// sends.
func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request, _ httprouter.Params, player PlayerID) {
	game := r.URL.Query().Get("game")
	if _, err := h.manager.GetGame(game, player); err != nil {
		writeError(w, err)
		return
	}

	websocket.Handler(func(conn *websocket.Conn) {
		h.hub.Subscribe(game, conn)
		h.logger.Printf("%d -> %s: subscribe", player, game)
		defer func() {
			h.hub.Unsubscribe(game, conn)
			conn.Close()
		}()

		for {
			var msg Message
			if err := websocket.JSON.Receive(conn, &msg); err != nil {
				return
			}

			reply, err := h.manager.Handle(player, &msg)
			if err != nil {
				reply = MakeMessage("error", err.Error())
			}
			if err := websocket.JSON.Send(conn, reply); err != nil {
				return
			}
		}
	}).ServeHTTP(w, r)
}

func statusOf(err error) int {
	if errors.Is(err, ErrUnauthenticated) {
		return http.StatusUnauthorized
	}
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindExhausted:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	resp := Response{Message: err.Error()}
	var e *Error
	if errors.As(err, &e) {
		resp.Code = e.Code
	}
	if status == http.StatusInternalServerError {
		resp.Message = "internal error"
	}
	if status == http.StatusUnauthorized {
		resp.Message = ErrUnauthenticated.Error()
	}
	writeResponse(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, message string, data interface{}) {
	writeResponse(w, status, Response{Message: message, Data: data})
}

func writeResponse(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("write response: %v", err)
	}
}
