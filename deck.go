package blackjack

import (
	"fmt"
	"math/rand"
)

const DeckSize = 52

// Intn returns a uniform random int in [0,n). rand.Intn satisfies it and
// is safe for concurrent use.
type Intn func(n int) int

// Deck is the ordered draw pile of one session. The top of the deck is
// the last element.
type Deck struct {
	cards []*Card
}

// NewDeck builds a full deck from the catalog and shuffles it. A nil
// intn uses the global math/rand source.
func NewDeck(catalog *Catalog, intn Intn) (*Deck, error) {
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	d := &Deck{cards: make([]*Card, 0, DeckSize)}
	for i := range catalog.cards {
		d.cards = append(d.cards, &catalog.cards[i])
	}
	d.Shuffle(intn)
	return d, nil
}

// RestoreDeck rebuilds a deck in the given order, bottom first.
func RestoreDeck(catalog *Catalog, ids []CardID) (*Deck, error) {
	if len(ids) > DeckSize {
		return nil, fmt.Errorf("deck of %d cards exceeds %d", len(ids), DeckSize)
	}
	d := &Deck{cards: make([]*Card, 0, len(ids))}
	seen := make(map[CardID]bool, len(ids))
	for _, id := range ids {
		card, ok := catalog.Card(id)
		if !ok {
			return nil, fmt.Errorf("unknown card id %d", id)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate card id %d", id)
		}
		seen[id] = true
		d.cards = append(d.cards, card)
	}
	return d, nil
}

// Shuffle is a Fisher-Yates shuffle: for i from the last index down to
// 1, swap i with a uniform j in [0,i].
func (d *Deck) Shuffle(intn Intn) {
	if intn == nil {
		intn = rand.Intn
	}
	for i := len(d.cards) - 1; i > 0; i-- {
		j := intn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw removes and returns the top card. It reports false when the deck
// is empty.
func (d *Deck) Draw() (*Card, bool) {
	if len(d.cards) == 0 {
		return nil, false
	}
	top := d.cards[len(d.cards)-1]
	d.cards[len(d.cards)-1] = nil
	d.cards = d.cards[:len(d.cards)-1]
	return top, true
}

// PutBottom places cards underneath the rest of the deck, preserving
// their order.
func (d *Deck) PutBottom(cards ...*Card) {
	if len(cards) == 0 {
		return
	}
	out := make([]*Card, 0, len(cards)+len(d.cards))
	out = append(out, cards...)
	d.cards = append(out, d.cards...)
}

func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Cards returns the deck bottom first.
func (d *Deck) Cards() []*Card {
	out := make([]*Card, len(d.cards))
	copy(out, d.cards)
	return out
}

func (d *Deck) IDs() []CardID {
	ids := make([]CardID, len(d.cards))
	for i, c := range d.cards {
		ids[i] = c.id
	}
	return ids
}
