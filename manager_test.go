package blackjack

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu       sync.Mutex
	sessions map[string]SessionRecord
	saves    int
	failSave error
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]SessionRecord)}
}

func (m *memStore) SaveSession(_ context.Context, rec SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.failSave != nil {
		return m.failSave
	}
	if old, ok := m.sessions[rec.ID]; ok && old.Version >= rec.Version {
		return nil
	}
	m.sessions[rec.ID] = rec
	return nil
}

func (m *memStore) LoadSessions(context.Context) ([]SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []SessionRecord
	for _, rec := range m.sessions {
		out = append(out, rec)
	}
	return out, nil
}

func (m *memStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

type notifyLog struct {
	mu  sync.Mutex
	ids []string
}

func (n *notifyLog) Notify(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, id)
}

func (n *notifyLog) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.ids)
}

type managerFixture struct {
	manager  *Manager
	store    *memStore
	notified *notifyLog
	logs     *bytes.Buffer
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()
	f := &managerFixture{
		store:    newMemStore(),
		notified: &notifyLog{},
		logs:     &bytes.Buffer{},
	}
	f.manager = NewManager(newTestRegistry(t),
		WithStore(f.store),
		WithNotifier(f.notified),
		WithLogger(log.New(f.logs, "", 0)),
	)
	return f
}

func TestManagerFlow(t *testing.T) {
	f := newManagerFixture(t)
	m := f.manager

	view, err := m.CreateGame(1)
	require.NoError(t, err)
	id := view.ID
	assert.True(t, view.IsOwner)
	assert.Equal(t, 1, f.notified.count())

	_, err = m.JoinGame(view.JoinCode, 2)
	require.NoError(t, err)
	_, err = m.JoinGame(view.JoinCode, 3)
	require.NoError(t, err)

	for _, p := range []PlayerID{1, 2, 3} {
		_, err := m.SetReady(id, p)
		require.NoError(t, err)
	}
	view, err = m.StartGame(id, 1)
	require.NoError(t, err)
	assert.True(t, view.IsActive)
	assert.True(t, view.IsYourTurn)
	assert.Len(t, view.Hands, 3)

	// Player 1 busts on the seven of spades.
	c, hand, err := m.DrawCard(id, 1)
	require.NoError(t, err)
	assert.Equal(t, c.ID(), hand.Cards[len(hand.Cards)-1].ID())
	assert.True(t, hand.Busted)

	_, err = m.EndTurn(id, 3)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = m.Stand(id, 2)
	require.NoError(t, err)
	view, err = m.Stand(id, 3)
	require.NoError(t, err)
	assert.True(t, view.RoundOver)
	require.NotNil(t, view.Winner)
	assert.Equal(t, PlayerID(2), *view.Winner)

	view, err = m.RestartGame(id, 1)
	require.NoError(t, err)
	assert.True(t, view.IsActive)
	assert.Nil(t, view.Winner)

	require.NoError(t, m.LeaveGame(id, 1))
	view, err = m.GetGame(id, 2)
	require.NoError(t, err)
	assert.True(t, view.IsFinished)

	// create, 2 joins, 3 readies, start, draw, 2 stands, restart, leave
	assert.Equal(t, 12, f.notified.count())
	assert.Equal(t, 12, f.store.saves)
	assert.Contains(t, f.logs.String(), "1 -> "+id+": start_game")

	stored := f.store.sessions[id]
	assert.True(t, stored.Finished)
	assert.Equal(t, []PlayerID{2, 3}, stored.Players)
}

func TestManagerRejectionsDoNotCommit(t *testing.T) {
	f := newManagerFixture(t)
	m := f.manager

	view, err := m.CreateGame(1)
	require.NoError(t, err)
	before := f.notified.count()

	_, err = m.StartGame(view.ID, 1)
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)
	_, err = m.JoinGame("ZZZZZZ", 2)
	assert.ErrorIs(t, err, ErrJoinCodeNotFound)
	_, err = m.JoinGame(view.JoinCode, 1)
	assert.ErrorIs(t, err, ErrAlreadyJoined)
	_, err = m.GetGame(view.ID, 2)
	assert.ErrorIs(t, err, ErrPlayerNotInGame)

	assert.Equal(t, before, f.notified.count())
	assert.Equal(t, before, f.store.saves)
}

func TestManagerSaveFailureIsLogged(t *testing.T) {
	f := newManagerFixture(t)
	f.store.failSave = errors.New("disk full")

	view, err := f.manager.CreateGame(1)
	require.NoError(t, err)
	assert.Contains(t, f.logs.String(), "disk full")
	assert.Equal(t, 1, f.notified.count())

	_, err = f.manager.GetGame(view.ID, 1)
	assert.NoError(t, err, "registry stays authoritative")
}

func TestManagerDeckVisibility(t *testing.T) {
	f := newManagerFixture(t)
	m := f.manager

	view, err := m.CreateGame(1)
	require.NoError(t, err)
	_, err = m.JoinGame(view.JoinCode, 2)
	require.NoError(t, err)

	deck, err := m.ViewDeck(view.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, DeckSize, deck.Count)

	_, err = m.ViewDeck(view.ID, 2)
	assert.ErrorIs(t, err, ErrNotOwner)

	owner, err := m.GetGame(view.ID, 1)
	require.NoError(t, err)
	assert.NotNil(t, owner.Deck)
	assert.Len(t, owner.Hands, 2)

	other, err := m.GetGame(view.ID, 2)
	require.NoError(t, err)
	assert.Nil(t, other.Deck)
	require.Len(t, other.Hands, 1)
	assert.Equal(t, PlayerID(2), other.Hands[0].Player)

	hand, err := m.MyHand(view.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, PlayerID(2), hand.Player)
}

// TestConcurrentDraws races 100 draws by the player to act against a
// deck holding five low cards.
func TestConcurrentDraws(t *testing.T) {
	f := newManagerFixture(t)
	m := f.manager

	rec := riggedRecord([][]CardID{
		{card(SuitHearts, RankTwo), card(SuitHearts, RankThree)},
		{card(SuitHearts, RankKing), card(SuitHearts, RankQueen)},
	}, nil)
	low := []CardID{
		card(SuitDiamonds, RankTwo),
		card(SuitClubs, RankTwo),
		card(SuitSpades, RankTwo),
		card(SuitDiamonds, RankThree),
		card(SuitClubs, RankThree),
	}
	rec.Deck = low
	used := append(append([]CardID{}, low...), rec.Hands[0].Cards...)
	used = append(used, rec.Hands[1].Cards...)
	for _, c := range StandardCatalog().Cards() {
		if !containsID(used, c.ID()) {
			rec.Hands[1].Cards = append(rec.Hands[1].Cards, c.ID())
		}
	}
	s, err := m.Registry().Restore(rec)
	require.NoError(t, err)

	const draws = 100
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		exhausted int
		drawn     = make(map[CardID]int)
	)
	for i := 0; i < draws; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, _, err := m.DrawCard(rec.ID, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
				drawn[c.ID()]++
			case KindOf(err) == KindExhausted:
				exhausted++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 95, exhausted)
	for id, n := range drawn {
		assert.Equal(t, 1, n, "card %d drawn %d times", id, n)
	}

	require.NoError(t, m.Registry().WithLock(rec.ID, func(s *Session) error {
		h, _ := s.Hand(1)
		assert.Equal(t, 7, h.Count())
		assert.Equal(t, 17, h.Total())
		assert.Equal(t, 0, s.DeckRemaining())
		return nil
	}))
	assert.Equal(t, s.Version(), f.store.sessions[rec.ID].Version)
}

func containsID(ids []CardID, id CardID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestManagerRestore(t *testing.T) {
	f := newManagerFixture(t)
	view, err := f.manager.CreateGame(1)
	require.NoError(t, err)

	bad := riggedRecord([][]CardID{{1, 2}}, nil)
	bad.ID = "broken"
	bad.JoinCode = "BROKEN"
	bad.Players = append(bad.Players, 9)
	f.store.sessions[bad.ID] = bad

	other := NewManager(newTestRegistry(t), WithStore(f.store), WithLogger(log.New(f.logs, "", 0)))
	n, err := other.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, f.logs.String(), "broken: restore")

	got, err := other.GetGame(view.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, view.JoinCode, got.JoinCode)
}

func TestManagerRemoveGame(t *testing.T) {
	f := newManagerFixture(t)
	view, err := f.manager.CreateGame(1)
	require.NoError(t, err)

	require.NoError(t, f.manager.RemoveGame(context.Background(), view.ID))
	assert.Empty(t, f.store.sessions)
	assert.ErrorIs(t, f.manager.RemoveGame(context.Background(), view.ID), ErrSessionNotFound)
}

func TestManagerHandle(t *testing.T) {
	f := newManagerFixture(t)
	m := f.manager

	view, err := m.CreateGame(1)
	require.NoError(t, err)

	reply, err := m.Handle(2, MakeMessage("join_game", ActionMessage{Code: view.JoinCode}))
	require.NoError(t, err)
	assert.Equal(t, "game", reply.Type)

	for _, p := range []PlayerID{1, 2} {
		_, err := m.Handle(p, MakeMessage("set_ready", ActionMessage{Game: view.ID}))
		require.NoError(t, err)
	}
	_, err = m.Handle(1, MakeMessage("start_game", ActionMessage{Game: view.ID}))
	require.NoError(t, err)

	reply, err = m.Handle(1, MakeMessage("draw_card", ActionMessage{Game: view.ID}))
	require.NoError(t, err)
	assert.Equal(t, "card_drawn", reply.Type)

	_, err = m.Handle(1, MakeMessage("end_turn", ActionMessage{Game: view.ID}))
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = m.Handle(1, MakeMessage("shuffle", ActionMessage{Game: view.ID}))
	assert.Error(t, err)
}
