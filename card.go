package blackjack

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type Suit int

const (
	SuitUnknown  Suit = 0
	SuitHearts   Suit = 1
	SuitDiamonds Suit = 2
	SuitClubs    Suit = 3
	SuitSpades   Suit = 4
)

func (s Suit) String() string {
	switch s {
	case SuitHearts:
		return "Hearts"
	case SuitDiamonds:
		return "Diamonds"
	case SuitClubs:
		return "Clubs"
	case SuitSpades:
		return "Spades"
	}
	return "Unknown"
}

func ParseSuit(s string) (Suit, error) {
	for _, suit := range AllSuits() {
		if suit.String() == s {
			return suit, nil
		}
	}
	return SuitUnknown, fmt.Errorf("unknown suit %q", s)
}

func AllSuits() []Suit {
	return []Suit{
		SuitHearts,
		SuitDiamonds,
		SuitClubs,
		SuitSpades,
	}
}

type Rank int

const (
	RankUnknown Rank = 0
	RankAce     Rank = 1
	RankTwo     Rank = 2
	RankThree   Rank = 3
	RankFour    Rank = 4
	RankFive    Rank = 5
	RankSix     Rank = 6
	RankSeven   Rank = 7
	RankEight   Rank = 8
	RankNine    Rank = 9
	RankTen     Rank = 10
	RankJack    Rank = 11
	RankQueen   Rank = 12
	RankKing    Rank = 13
)

func (r Rank) String() string {
	switch {
	case r == RankAce:
		return "A"
	case r >= RankTwo && r <= RankTen:
		return strconv.Itoa(int(r))
	case r == RankJack:
		return "J"
	case r == RankQueen:
		return "Q"
	case r == RankKing:
		return "K"
	}
	return "?"
}

// Value is the fixed blackjack value of the rank. Aces always count 11.
func (r Rank) Value() int {
	switch {
	case r == RankAce:
		return 11
	case r >= RankTwo && r <= RankTen:
		return int(r)
	case r >= RankJack && r <= RankKing:
		return 10
	}
	return 0
}

func ParseRank(s string) (Rank, error) {
	for _, rank := range AllRanks() {
		if rank.String() == s {
			return rank, nil
		}
	}
	return RankUnknown, fmt.Errorf("unknown rank %q", s)
}

func AllRanks() []Rank {
	return []Rank{
		RankAce,
		RankTwo,
		RankThree,
		RankFour,
		RankFive,
		RankSix,
		RankSeven,
		RankEight,
		RankNine,
		RankTen,
		RankJack,
		RankQueen,
		RankKing,
	}
}

type CardID int

// Card is immutable once created. Sessions refer to catalog entries by
// pointer and never copy them into their own state.
type Card struct {
	id   CardID
	suit Suit
	rank Rank
}

func NewCard(id CardID, suit Suit, rank Rank) Card {
	return Card{id, suit, rank}
}

func (c Card) ID() CardID { return c.id }
func (c Card) Suit() Suit { return c.suit }
func (c Card) Rank() Rank { return c.rank }
func (c Card) Value() int { return c.rank.Value() }

func (c Card) String() string {
	return c.rank.String() + " of " + c.suit.String()
}

func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID    int    `json:"id"`
		Suit  string `json:"suit"`
		Rank  string `json:"rank"`
		Value int    `json:"value"`
	}{int(c.id), c.suit.String(), c.rank.String(), c.Value()})
}

// Catalog is the canonical card set every deck is built from.
type Catalog struct {
	cards []Card
	byID  map[CardID]*Card
}

// NewCatalog indexes cards by id. Ids must be positive and unique.
func NewCatalog(cards []Card) (*Catalog, error) {
	c := &Catalog{
		cards: make([]Card, len(cards)),
		byID:  make(map[CardID]*Card, len(cards)),
	}
	copy(c.cards, cards)
	for i := range c.cards {
		card := &c.cards[i]
		if card.id <= 0 {
			return nil, fmt.Errorf("card %s has invalid id %d", card, card.id)
		}
		if _, ok := c.byID[card.id]; ok {
			return nil, fmt.Errorf("duplicate card id %d", card.id)
		}
		if card.Value() == 0 || card.suit < SuitHearts || card.suit > SuitSpades {
			return nil, fmt.Errorf("card %d is malformed", card.id)
		}
		c.byID[card.id] = card
	}
	return c, nil
}

// StandardCards returns the 52 cards of a standard deck, ids 1 to 52 in
// suit then rank order.
func StandardCards() []Card {
	cards := make([]Card, 0, DeckSize)
	id := CardID(1)
	for _, s := range AllSuits() {
		for _, r := range AllRanks() {
			cards = append(cards, NewCard(id, s, r))
			id++
		}
	}
	return cards
}

var standardCatalog = mustCatalog(StandardCards())

func mustCatalog(cards []Card) *Catalog {
	c, err := NewCatalog(cards)
	if err != nil {
		panic(err)
	}
	return c
}

// StandardCatalog is the process-wide 52 card catalog.
func StandardCatalog() *Catalog {
	return standardCatalog
}

func (c *Catalog) Len() int {
	return len(c.cards)
}

// Card resolves id to its canonical catalog entry.
func (c *Catalog) Card(id CardID) (*Card, bool) {
	card, ok := c.byID[id]
	return card, ok
}

// Cards returns a copy of the catalog contents.
func (c *Catalog) Cards() []Card {
	out := make([]Card, len(c.cards))
	copy(out, c.cards)
	return out
}

// Validate reports ErrInvalidDeckSize unless the catalog holds exactly
// one full deck.
func (c *Catalog) Validate() error {
	if c == nil || len(c.cards) != DeckSize {
		n := 0
		if c != nil {
			n = len(c.cards)
		}
		return ErrInvalidDeckSize.withMessage(fmt.Sprintf("deck must contain exactly %d cards, got %d", DeckSize, n))
	}
	return nil
}
