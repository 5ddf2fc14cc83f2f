package blackjack

import (
	"context"
	"fmt"
)

// SessionRecord is the persisted shape of a session. Cards are stored
// by catalog id.
type SessionRecord struct {
	ID        string       `json:"id"`
	JoinCode  string       `json:"join_code"`
	Owner     PlayerID     `json:"owner"`
	Players   []PlayerID   `json:"players"`
	Deck      []CardID     `json:"deck"`
	Hands     []HandRecord `json:"hands"`
	Turn      int          `json:"turn"`
	Active    bool         `json:"is_active"`
	RoundOver bool         `json:"round_over"`
	Winner    PlayerID     `json:"winner,omitempty"`
	Finished  bool         `json:"is_finished"`
	Rounds    int          `json:"rounds"`
	Version   int64        `json:"version"`
}

type HandRecord struct {
	Player PlayerID `json:"player"`
	Cards  []CardID `json:"cards"`
	Ready  bool     `json:"is_ready"`
	Stood  bool     `json:"stood"`
}

// Store persists session records. The in-memory registry stays
// authoritative; a store only has to keep the newest version of each
// session it is given.
type Store interface {
	SaveSession(ctx context.Context, rec SessionRecord) error
	LoadSessions(ctx context.Context) ([]SessionRecord, error)
	DeleteSession(ctx context.Context, id string) error
}

// Record snapshots the session.
func (s *Session) Record() SessionRecord {
	rec := SessionRecord{
		ID:        s.id,
		JoinCode:  s.joinCode,
		Owner:     s.owner,
		Players:   s.Players(),
		Deck:      s.deck.IDs(),
		Hands:     make([]HandRecord, 0, len(s.players)),
		Turn:      s.turn,
		Active:    s.active,
		RoundOver: s.roundOver,
		Winner:    s.winner,
		Finished:  s.finished,
		Rounds:    s.rounds,
		Version:   s.version,
	}
	for _, p := range s.players {
		h := s.hands[p]
		ids := make([]CardID, len(h.cards))
		for i, c := range h.cards {
			ids[i] = c.id
		}
		rec.Hands = append(rec.Hands, HandRecord{
			Player: p,
			Cards:  ids,
			Ready:  h.ready,
			Stood:  h.stood,
		})
	}
	return rec
}

// restoreSession rebuilds a session from rec, checking that no card
// appears twice between the deck and the hands.
func restoreSession(rec SessionRecord, catalog *Catalog, intn Intn) (*Session, error) {
	if rec.ID == "" {
		return nil, fmt.Errorf("session record has no id")
	}
	if len(rec.Players) > MaxPlayers {
		return nil, fmt.Errorf("session %s has %d players", rec.ID, len(rec.Players))
	}

	deck, err := RestoreDeck(catalog, rec.Deck)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", rec.ID, err)
	}
	seen := make(map[CardID]bool, DeckSize)
	for _, id := range rec.Deck {
		seen[id] = true
	}

	s := &Session{
		id:        rec.ID,
		owner:     rec.Owner,
		joinCode:  rec.JoinCode,
		catalog:   catalog,
		intn:      intn,
		hands:     make(map[PlayerID]*Hand, len(rec.Players)),
		deck:      deck,
		turn:      rec.Turn,
		active:    rec.Active,
		roundOver: rec.RoundOver,
		winner:    rec.Winner,
		finished:  rec.Finished,
		rounds:    rec.Rounds,
		version:   rec.Version,
	}
	for _, hr := range rec.Hands {
		if _, ok := s.hands[hr.Player]; ok {
			return nil, fmt.Errorf("session %s: duplicate hand for player %d", rec.ID, hr.Player)
		}
		h := newHand(hr.Player)
		h.ready = hr.Ready
		h.stood = hr.Stood
		for _, id := range hr.Cards {
			c, ok := catalog.Card(id)
			if !ok {
				return nil, fmt.Errorf("session %s: unknown card id %d", rec.ID, id)
			}
			if seen[id] {
				return nil, fmt.Errorf("session %s: card %d dealt twice", rec.ID, id)
			}
			seen[id] = true
			h.add(c)
		}
		s.hands[hr.Player] = h
	}
	for _, p := range rec.Players {
		if _, ok := s.hands[p]; !ok {
			return nil, fmt.Errorf("session %s: player %d has no hand", rec.ID, p)
		}
		if s.IsPlayer(p) {
			return nil, fmt.Errorf("session %s: player %d seated twice", rec.ID, p)
		}
		s.players = append(s.players, p)
	}
	if len(s.hands) != len(s.players) {
		return nil, fmt.Errorf("session %s: hands without a seat", rec.ID)
	}
	if s.active && (s.turn < 0 || s.turn >= len(s.players)) {
		return nil, fmt.Errorf("session %s: turn %d out of range", rec.ID, s.turn)
	}
	return s, nil
}
