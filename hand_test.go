package blackjack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func handOf(ids ...CardID) *Hand {
	h := newHand(1)
	for _, id := range ids {
		c, _ := StandardCatalog().Card(id)
		h.add(c)
	}
	return h
}

func TestHandTotal(t *testing.T) {
	testCases := []struct {
		cards  []CardID
		total  int
		busted bool
	}{
		{nil, 0, false},
		{[]CardID{card(SuitHearts, RankAce), card(SuitClubs, RankKing)}, 21, false},
		{[]CardID{card(SuitHearts, RankAce), card(SuitClubs, RankAce)}, 22, true},
		{[]CardID{card(SuitHearts, RankTwo), card(SuitClubs, RankNine), card(SuitSpades, RankQueen)}, 21, false},
		{[]CardID{card(SuitHearts, RankJack), card(SuitClubs, RankQueen), card(SuitSpades, RankTwo)}, 22, true},
	}

	for _, tc := range testCases {
		h := handOf(tc.cards...)
		assert.Equal(t, tc.total, h.Total(), "%v", tc.cards)
		assert.Equal(t, tc.busted, h.Busted(), "%v", tc.cards)
		assert.Equal(t, tc.busted, h.Done(), "%v", tc.cards)
		assert.Equal(t, len(tc.cards), h.Count())
	}
}

func TestHandResetKeepsReady(t *testing.T) {
	h := handOf(card(SuitHearts, RankTen), card(SuitHearts, RankNine))
	h.ready = true
	h.stood = true

	returned := h.reset()
	assert.Len(t, returned, 2)
	assert.Zero(t, h.Count())
	assert.Zero(t, h.Total())
	assert.True(t, h.Ready())
	assert.False(t, h.Stood())
}
