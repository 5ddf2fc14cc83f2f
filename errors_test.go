package blackjack

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesCode(t *testing.T) {
	err := ErrInvalidDeckSize.withMessage("deck must contain exactly 52 cards, got 51")
	assert.ErrorIs(t, err, ErrInvalidDeckSize)
	assert.NotErrorIs(t, err, ErrGameFull)

	wrapped := fmt.Errorf("load catalog: %w", err)
	assert.ErrorIs(t, wrapped, ErrInvalidDeckSize)
	assert.Equal(t, KindConflict, KindOf(wrapped))
}

func TestKindOf(t *testing.T) {
	testCases := []struct {
		err  error
		kind Kind
	}{
		{ErrSessionNotFound, KindNotFound},
		{ErrJoinCodeNotFound, KindNotFound},
		{ErrNotOwner, KindForbidden},
		{ErrNotYourTurn, KindForbidden},
		{ErrGameFull, KindConflict},
		{ErrPlayersNotReady, KindConflict},
		{ErrDeckEmpty, KindExhausted},
		{errors.New("other"), KindInternal},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.kind, KindOf(tc.err), tc.err.Error())
	}
}

func TestParsePlayerID(t *testing.T) {
	p, err := ParsePlayerID(" 12 ")
	assert.NoError(t, err)
	assert.Equal(t, PlayerID(12), p)

	for _, s := range []string{"", "abc", "0", "-3"} {
		_, err := ParsePlayerID(s)
		assert.Error(t, err, s)
	}
}
