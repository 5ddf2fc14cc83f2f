package blackjack

import "encoding/json"

// Message is the envelope of everything pushed over a websocket.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const MessageGameNotify = "game_notify"

// GameNotifyMessage tells subscribers that a session changed. It
// carries no state; clients re-fetch the session.
type GameNotifyMessage struct {
	Game string `json:"game"`
}

func MakeMessage(typ string, data interface{}) *Message {
	b, err := json.Marshal(data)
	if err != nil {
		panic(err)
	}

	return &Message{typ, b}
}

// Response is the body of every HTTP response.
type Response struct {
	Message string      `json:"message"`
	Code    Code        `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type CreateGameData struct {
	Game SessionView `json:"game"`
}

type GameData struct {
	Game SessionView `json:"game"`
}

type DrawData struct {
	Card *Card    `json:"card"`
	Hand HandView `json:"player_deck"`
}

type HandData struct {
	Hand HandView `json:"player_deck"`
}

type DeckData struct {
	Deck DeckView `json:"deck"`
}

// ActionMessage is the data of an action sent over a websocket.
type ActionMessage struct {
	Game string `json:"game"`
	Code string `json:"code"`
}
