package blackjack

import (
	"errors"
	"strconv"
	"strings"
)

// PlayerID identifies an authenticated user. Resolving it is the job of
// the identity collaborator.
type PlayerID int

func ParsePlayerID(s string) (PlayerID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("missing player id")
	}

	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid player id")
	}

	return PlayerID(n), nil
}

func (p PlayerID) String() string {
	return strconv.Itoa(int(p))
}
