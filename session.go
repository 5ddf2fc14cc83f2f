package blackjack

import "sync"

const (
	MaxPlayers    = 7
	MinPlayers    = 2
	CardsPerDeal  = 2
	JoinCodeChars = 6
)

type State int

const (
	StateLobby     State = 0
	StateActive    State = 1
	StateRoundOver State = 2
	StateFinished  State = 3
)

func (s State) String() string {
	switch s {
	case StateLobby:
		return "lobby"
	case StateActive:
		return "active"
	case StateRoundOver:
		return "round_over"
	case StateFinished:
		return "finished"
	}
	return "unknown"
}

// Session is one game: its deck, its players' hands and its turn
// pointer. Session methods do no locking of their own; every call must
// happen inside Registry.WithLock, or on a session no other goroutine
// can reach.
type Session struct {
	id       string
	owner    PlayerID
	joinCode string
	catalog  *Catalog
	intn     Intn

	mu        sync.Mutex
	players   []PlayerID
	hands     map[PlayerID]*Hand
	deck      *Deck
	turn      int
	active    bool
	roundOver bool
	winner    PlayerID
	finished  bool
	rounds    int
	version   int64
}

// newSession seats the owner as the first player in front of a freshly
// shuffled deck.
func newSession(id, joinCode string, owner PlayerID, catalog *Catalog, intn Intn) (*Session, error) {
	deck, err := NewDeck(catalog, intn)
	if err != nil {
		return nil, err
	}
	s := &Session{
		id:       id,
		owner:    owner,
		joinCode: joinCode,
		catalog:  catalog,
		intn:     intn,
		players:  []PlayerID{owner},
		hands:    map[PlayerID]*Hand{owner: newHand(owner)},
		deck:     deck,
		version:  1,
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }
func (s *Session) Owner() PlayerID { return s.owner }
func (s *Session) JoinCode() string { return s.joinCode }
func (s *Session) Active() bool { return s.active }
func (s *Session) Finished() bool { return s.finished }
func (s *Session) RoundOver() bool { return s.roundOver }
func (s *Session) TurnIndex() int { return s.turn }
func (s *Session) Rounds() int { return s.rounds }
func (s *Session) Version() int64 { return s.version }
func (s *Session) DeckRemaining() int { return s.deck.Remaining() }

func (s *Session) State() State {
	switch {
	case s.finished:
		return StateFinished
	case s.active:
		return StateActive
	case s.roundOver:
		return StateRoundOver
	}
	return StateLobby
}

func (s *Session) Players() []PlayerID {
	out := make([]PlayerID, len(s.players))
	copy(out, s.players)
	return out
}

func (s *Session) Hand(p PlayerID) (*Hand, bool) {
	h, ok := s.hands[p]
	return h, ok
}

// DeckCards returns the remaining deck, bottom first.
func (s *Session) DeckCards() []*Card {
	return s.deck.Cards()
}

// Winner reports the winner of the last evaluated round. A round that
// ended in a push has no winner.
func (s *Session) Winner() (PlayerID, bool) {
	return s.winner, s.winner != 0
}

// CurrentPlayer is the player whose action is valid, if a round is on.
func (s *Session) CurrentPlayer() (PlayerID, bool) {
	if !s.active || s.turn < 0 || s.turn >= len(s.players) {
		return 0, false
	}
	return s.players[s.turn], true
}

func (s *Session) IsPlayer(p PlayerID) bool {
	return s.indexOf(p) >= 0
}

// CardsAccounted is the number of cards in the deck and in all hands.
func (s *Session) CardsAccounted() int {
	n := s.deck.Remaining()
	for _, h := range s.hands {
		n += h.Count()
	}
	return n
}

func (s *Session) indexOf(p PlayerID) int {
	for i, id := range s.players {
		if id == p {
			return i
		}
	}
	return -1
}

func (s *Session) Join(p PlayerID) error {
	if s.IsPlayer(p) {
		return ErrAlreadyJoined
	}
	if len(s.players) >= MaxPlayers {
		return ErrGameFull
	}
	if s.finished {
		return ErrGameFinished
	}
	if s.State() != StateLobby {
		return ErrGameStarted
	}

	s.players = append(s.players, p)
	s.hands[p] = newHand(p)
	s.version++
	return nil
}

func (s *Session) SetReady(p PlayerID) error {
	h, ok := s.hands[p]
	if !ok {
		return ErrPlayerNotInGame
	}
	if s.finished {
		return ErrGameFinished
	}
	if s.active {
		return ErrRoundInProgress
	}

	h.ready = true
	s.version++
	return nil
}

func (s *Session) Start(requester PlayerID) error {
	if requester != s.owner {
		return ErrNotOwner
	}
	if s.finished {
		return ErrGameFinished
	}
	if s.State() != StateLobby {
		return ErrGameStarted
	}
	return s.deal()
}

// Restart deals a new round once the previous one has been evaluated,
// whether it produced a winner or a push.
func (s *Session) Restart(requester PlayerID) error {
	if requester != s.owner {
		return ErrNotOwner
	}
	if s.finished {
		return ErrGameFinished
	}
	if s.active {
		return ErrRoundInProgress
	}
	if !s.roundOver {
		return ErrRoundNotOver
	}
	return s.deal()
}

// deal prepares the new deck and hands off to the side and only then
// swaps them in, so a failure leaves the session untouched.
func (s *Session) deal() error {
	if len(s.players) < MinPlayers {
		return ErrNotEnoughPlayers
	}
	for _, p := range s.players {
		if !s.hands[p].ready {
			return ErrPlayersNotReady
		}
	}
	if CardsPerDeal*len(s.players) > DeckSize {
		return ErrDeckExhausted
	}

	deck, err := NewDeck(s.catalog, s.intn)
	if err != nil {
		return err
	}
	dealt := make(map[PlayerID][]*Card, len(s.players))
	for pass := 0; pass < CardsPerDeal; pass++ {
		for _, p := range s.players {
			c, ok := deck.Draw()
			if !ok {
				return ErrDeckExhausted
			}
			dealt[p] = append(dealt[p], c)
		}
	}

	s.deck = deck
	for _, p := range s.players {
		h := s.hands[p]
		h.reset()
		for _, c := range dealt[p] {
			h.add(c)
		}
	}
	s.turn = 0
	s.active = true
	s.roundOver = false
	s.winner = 0
	s.rounds++
	s.version++
	return nil
}

// checkTurn rejects p unless a round is on and it is p's turn.
func (s *Session) checkTurn(p PlayerID) (*Hand, error) {
	if s.finished {
		return nil, ErrGameFinished
	}
	if !s.active {
		return nil, ErrGameNotActive
	}
	h, ok := s.hands[p]
	if !ok {
		return nil, ErrPlayerNotInGame
	}
	if s.players[s.turn] != p {
		return nil, ErrNotYourTurn
	}
	return h, nil
}

// Draw moves the top card into p's hand. A hand that goes over 21 is
// busted and the turn moves on without an explicit EndTurn.
func (s *Session) Draw(p PlayerID) (*Card, error) {
	h, err := s.checkTurn(p)
	if err != nil {
		return nil, err
	}

	c, ok := s.deck.Draw()
	if !ok {
		return nil, ErrDeckEmpty
	}
	h.add(c)
	if h.Busted() {
		s.advance(s.turn + 1)
	}
	s.version++
	return c, nil
}

// EndTurn passes the turn to the next player still in the round. The
// hand stays in play for the next pass.
func (s *Session) EndTurn(p PlayerID) error {
	if _, err := s.checkTurn(p); err != nil {
		return err
	}

	s.advance(s.turn + 1)
	s.version++
	return nil
}

// Stand keeps p's hand as it is for the rest of the round.
func (s *Session) Stand(p PlayerID) error {
	h, err := s.checkTurn(p)
	if err != nil {
		return err
	}

	h.stood = true
	s.advance(s.turn + 1)
	s.version++
	return nil
}

// DeclareBlackjack ends the round with p as the winner when p's hand is
// worth exactly 21.
func (s *Session) DeclareBlackjack(p PlayerID) error {
	h, err := s.checkTurn(p)
	if err != nil {
		return err
	}
	if h.Total() != BlackjackTotal {
		return ErrNotBlackjack
	}

	s.endRound(p)
	s.version++
	return nil
}

// Leave removes p and returns their cards to the bottom of the deck.
// The session is over for everyone when the owner leaves.
func (s *Session) Leave(p PlayerID) error {
	idx := s.indexOf(p)
	if idx < 0 {
		return ErrPlayerNotInGame
	}

	s.deck.PutBottom(s.hands[p].reset()...)
	delete(s.hands, p)
	s.players = append(s.players[:idx:idx], s.players[idx+1:]...)

	switch {
	case p == s.owner:
		s.finished = true
		s.active = false
	case s.active && idx < s.turn:
		s.turn--
	case s.active && idx == s.turn:
		s.advance(s.turn)
	}
	s.version++
	return nil
}

// advance moves the turn pointer to the first player at or after from,
// wrapping around, whose hand is not done. With no such player the
// round is evaluated.
func (s *Session) advance(from int) {
	n := len(s.players)
	for k := 0; k < n; k++ {
		i := (from + k) % n
		if !s.hands[s.players[i]].Done() {
			s.turn = i
			return
		}
	}
	s.evaluate()
}

// evaluate picks the single highest hand worth 21 or less. A tie for
// the highest total, or every hand busted, is a push.
func (s *Session) evaluate() {
	best := -1
	var leaders []PlayerID
	for _, p := range s.players {
		total := s.hands[p].Total()
		if total > BlackjackTotal {
			continue
		}
		switch {
		case total > best:
			best = total
			leaders = []PlayerID{p}
		case total == best:
			leaders = append(leaders, p)
		}
	}

	var winner PlayerID
	if len(leaders) == 1 {
		winner = leaders[0]
	}
	s.endRound(winner)
}

func (s *Session) endRound(winner PlayerID) {
	s.winner = winner
	s.active = false
	s.roundOver = true
	s.turn = 0
}
