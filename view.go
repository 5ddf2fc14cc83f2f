package blackjack

// SessionView is what one player is allowed to see of a session. Only
// the owner sees the remaining deck and the other players' hands.
type SessionView struct {
	ID            string     `json:"id"`
	JoinCode      string     `json:"join_code"`
	Owner         PlayerID   `json:"owner"`
	Players       []PlayerID `json:"players"`
	State         string     `json:"state"`
	IsActive      bool       `json:"is_active"`
	IsFinished    bool       `json:"is_finished"`
	RoundOver     bool       `json:"round_over"`
	Turn          int        `json:"turn"`
	CurrentPlayer *PlayerID  `json:"current_player"`
	Winner        *PlayerID  `json:"winner"`
	Round         int        `json:"round"`
	IsOwner       bool       `json:"is_owner"`
	IsYourTurn    bool       `json:"is_your_turn"`
	Deck          *DeckView  `json:"deck,omitempty"`
	Hands         []HandView `json:"player_decks"`
}

type HandView struct {
	Player  PlayerID `json:"player_id"`
	Cards   []*Card  `json:"deck"`
	Count   int      `json:"count"`
	Total   int      `json:"total_value"`
	IsReady bool     `json:"is_ready"`
	Stood   bool     `json:"stood"`
	Busted  bool     `json:"busted"`
}

type DeckView struct {
	Cards []*Card `json:"cards"`
	Count int     `json:"count"`
}

func newHandView(h *Hand) HandView {
	return HandView{
		Player:  h.player,
		Cards:   h.Cards(),
		Count:   h.Count(),
		Total:   h.Total(),
		IsReady: h.ready,
		Stood:   h.stood,
		Busted:  h.Busted(),
	}
}

// View renders the session for viewer, who must be seated in it.
func (s *Session) View(viewer PlayerID) (SessionView, error) {
	if !s.IsPlayer(viewer) {
		return SessionView{}, ErrPlayerNotInGame
	}

	v := SessionView{
		ID:         s.id,
		JoinCode:   s.joinCode,
		Owner:      s.owner,
		Players:    s.Players(),
		State:      s.State().String(),
		IsActive:   s.active,
		IsFinished: s.finished,
		RoundOver:  s.roundOver,
		Turn:       s.turn,
		Round:      s.rounds,
		IsOwner:    viewer == s.owner,
	}
	if p, ok := s.CurrentPlayer(); ok {
		v.CurrentPlayer = &p
		v.IsYourTurn = p == viewer
	}
	if w, ok := s.Winner(); ok {
		v.Winner = &w
	}

	if v.IsOwner {
		d := s.DeckView()
		v.Deck = &d
		for _, p := range s.players {
			v.Hands = append(v.Hands, newHandView(s.hands[p]))
		}
	} else {
		v.Hands = []HandView{newHandView(s.hands[viewer])}
	}
	return v, nil
}

// HandView renders p's own hand.
func (s *Session) HandView(p PlayerID) (HandView, error) {
	h, ok := s.hands[p]
	if !ok {
		return HandView{}, ErrPlayerNotInGame
	}
	return newHandView(h), nil
}

// DeckView renders the remaining deck. Callers must only show it to the
// owner.
func (s *Session) DeckView() DeckView {
	return DeckView{Cards: s.deck.Cards(), Count: s.deck.Remaining()}
}
