package blackjack

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"
)

// Manager runs one operation per request: resolve the session, mutate
// it under its lock, then persist and notify after the lock is gone.
type Manager struct {
	registry    *Registry
	store       Store
	notifier    Notifier
	logger      *log.Logger
	saveTimeout time.Duration
}

type ManagerOption func(*Manager)

func WithStore(store Store) ManagerOption {
	return func(m *Manager) { m.store = store }
}

func WithNotifier(n Notifier) ManagerOption {
	return func(m *Manager) { m.notifier = n }
}

func WithLogger(logger *log.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

func WithSaveTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.saveTimeout = d }
}

func NewManager(registry *Registry, opts ...ManagerOption) *Manager {
	m := &Manager{
		registry:    registry,
		logger:      log.Default(),
		saveTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Registry() *Registry {
	return m.registry
}

// Restore loads every persisted session into the registry. Records that
// no longer validate are logged and skipped.
func (m *Manager) Restore(ctx context.Context) (int, error) {
	if m.store == nil {
		return 0, nil
	}
	recs, err := m.store.LoadSessions(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	for _, rec := range recs {
		if _, err := m.registry.Restore(rec); err != nil {
			m.logger.Printf("%s: restore: %v", rec.ID, err)
			continue
		}
		n++
	}
	return n, nil
}

// RemoveGame drops an abandoned session from the registry and the store.
func (m *Manager) RemoveGame(ctx context.Context, id string) error {
	if !m.registry.Remove(id) {
		return ErrSessionNotFound
	}
	m.logger.Printf("%s: removed", id)
	if m.store != nil {
		return m.store.DeleteSession(ctx, id)
	}
	return nil
}

func (m *Manager) CreateGame(owner PlayerID) (SessionView, error) {
	s, err := m.registry.Create(owner)
	if err != nil {
		return SessionView{}, err
	}

	var view SessionView
	var rec SessionRecord
	err = lockSession(s, func(s *Session) error {
		var err error
		view, err = s.View(owner)
		rec = s.Record()
		return err
	})
	if err != nil {
		return SessionView{}, err
	}
	m.commit(rec, owner, "create_game")
	return view, nil
}

func (m *Manager) GetGame(id string, player PlayerID) (SessionView, error) {
	var view SessionView
	err := m.registry.WithLock(id, func(s *Session) error {
		var err error
		view, err = s.View(player)
		return err
	})
	return view, err
}

// ViewDeck returns the remaining deck to the owner and to nobody else.
func (m *Manager) ViewDeck(id string, player PlayerID) (DeckView, error) {
	var deck DeckView
	err := m.registry.WithLock(id, func(s *Session) error {
		if player != s.Owner() {
			return ErrNotOwner
		}
		deck = s.DeckView()
		return nil
	})
	return deck, err
}

func (m *Manager) MyHand(id string, player PlayerID) (HandView, error) {
	var hand HandView
	err := m.registry.WithLock(id, func(s *Session) error {
		var err error
		hand, err = s.HandView(player)
		return err
	})
	return hand, err
}

func (m *Manager) JoinGame(code string, player PlayerID) (SessionView, error) {
	var view SessionView
	var rec SessionRecord
	err := m.registry.WithLockByCode(code, func(s *Session) error {
		if err := s.Join(player); err != nil {
			return err
		}
		rec = s.Record()
		view, _ = s.View(player)
		return nil
	})
	if err != nil {
		return SessionView{}, err
	}
	m.commit(rec, player, "join_game")
	return view, nil
}

func (m *Manager) StartGame(id string, player PlayerID) (SessionView, error) {
	return m.mutateView(id, player, "start_game", func(s *Session) error {
		return s.Start(player)
	})
}

func (m *Manager) RestartGame(id string, player PlayerID) (SessionView, error) {
	return m.mutateView(id, player, "restart_game", func(s *Session) error {
		return s.Restart(player)
	})
}

func (m *Manager) SetReady(id string, player PlayerID) (SessionView, error) {
	return m.mutateView(id, player, "set_ready", func(s *Session) error {
		return s.SetReady(player)
	})
}

func (m *Manager) EndTurn(id string, player PlayerID) (SessionView, error) {
	return m.mutateView(id, player, "end_turn", func(s *Session) error {
		return s.EndTurn(player)
	})
}

func (m *Manager) Stand(id string, player PlayerID) (SessionView, error) {
	return m.mutateView(id, player, "stand", func(s *Session) error {
		return s.Stand(player)
	})
}

func (m *Manager) DeclareBlackjack(id string, player PlayerID) (SessionView, error) {
	return m.mutateView(id, player, "declare_blackjack", func(s *Session) error {
		return s.DeclareBlackjack(player)
	})
}

func (m *Manager) LeaveGame(id string, player PlayerID) error {
	return m.mutate(id, player, "leave_game", func(s *Session) error {
		return s.Leave(player)
	})
}

func (m *Manager) DrawCard(id string, player PlayerID) (*Card, HandView, error) {
	var card *Card
	var hand HandView
	err := m.mutate(id, player, "draw_card", func(s *Session) error {
		c, err := s.Draw(player)
		if err != nil {
			return err
		}
		card = c
		hand, _ = s.HandView(player)
		return nil
	})
	return card, hand, err
}

func (m *Manager) mutateView(id string, player PlayerID, op string, fn func(*Session) error) (SessionView, error) {
	var view SessionView
	err := m.mutate(id, player, op, func(s *Session) error {
		if err := fn(s); err != nil {
			return err
		}
		view, _ = s.View(player)
		return nil
	})
	return view, err
}

// mutate applies fn under the session lock and commits the resulting
// snapshot once the lock is released.
func (m *Manager) mutate(id string, player PlayerID, op string, fn func(*Session) error) error {
	var rec SessionRecord
	err := m.registry.WithLock(id, func(s *Session) error {
		if err := fn(s); err != nil {
			return err
		}
		rec = s.Record()
		return nil
	})
	if err != nil {
		return err
	}
	m.commit(rec, player, op)
	return nil
}

func (m *Manager) commit(rec SessionRecord, player PlayerID, op string) {
	m.logger.Printf("%d -> %s: %s (v%d)", player, rec.ID, op, rec.Version)

	if m.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), m.saveTimeout)
		if err := m.store.SaveSession(ctx, rec); err != nil {
			m.logger.Printf("%s: save: %v", rec.ID, err)
		}
		cancel()
	}

	if m.notifier != nil {
		m.notifier.Notify(rec.ID)
	}
}

// Handle runs an action sent over a websocket and returns the reply to
// send back to the caller.
func (m *Manager) Handle(player PlayerID, msg *Message) (*Message, error) {
	var data ActionMessage
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return nil, err
		}
	}

	var view SessionView
	var err error
	switch msg.Type {
	case "join_game":
		view, err = m.JoinGame(data.Code, player)
	case "start_game":
		view, err = m.StartGame(data.Game, player)
	case "restart_game":
		view, err = m.RestartGame(data.Game, player)
	case "set_ready":
		view, err = m.SetReady(data.Game, player)
	case "end_turn":
		view, err = m.EndTurn(data.Game, player)
	case "stand":
		view, err = m.Stand(data.Game, player)
	case "declare_blackjack":
		view, err = m.DeclareBlackjack(data.Game, player)
	case "draw_card":
		var card *Card
		var hand HandView
		card, hand, err = m.DrawCard(data.Game, player)
		if err != nil {
			return nil, err
		}
		return MakeMessage("card_drawn", DrawData{Card: card, Hand: hand}), nil
	case "leave_game":
		if err := m.LeaveGame(data.Game, player); err != nil {
			return nil, err
		}
		return MakeMessage("game_left", GameNotifyMessage{Game: data.Game}), nil
	case "get_game":
		view, err = m.GetGame(data.Game, player)
	default:
		return nil, errors.New("unknown message type")
	}
	if err != nil {
		return nil, err
	}
	return MakeMessage("game", GameData{Game: view}), nil
}
