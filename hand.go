package blackjack

const BlackjackTotal = 21

// Hand is a player's cards in one session. The total is always derived
// from the cards.
type Hand struct {
	player PlayerID
	cards  []*Card
	ready  bool
	stood  bool
}

func newHand(player PlayerID) *Hand {
	return &Hand{player: player}
}

func (h *Hand) Player() PlayerID {
	return h.player
}

func (h *Hand) Cards() []*Card {
	out := make([]*Card, len(h.cards))
	copy(out, h.cards)
	return out
}

func (h *Hand) Count() int {
	return len(h.cards)
}

func (h *Hand) Total() int {
	var total int
	for _, c := range h.cards {
		total += c.Value()
	}
	return total
}

func (h *Hand) Ready() bool {
	return h.ready
}

func (h *Hand) Busted() bool {
	return h.Total() > BlackjackTotal
}

func (h *Hand) Stood() bool {
	return h.stood
}

// Done reports whether the hand takes no further part in the round.
func (h *Hand) Done() bool {
	return h.stood || h.Busted()
}

func (h *Hand) add(c *Card) {
	h.cards = append(h.cards, c)
}

// reset empties the hand for a new round. Readiness carries over.
func (h *Hand) reset() []*Card {
	cards := h.cards
	h.cards = nil
	h.stood = false
	return cards
}
