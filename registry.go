package blackjack

import (
	"errors"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const joinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// maxCodeAttempts bounds the collision retry loop in Create.
const maxCodeAttempts = 1000

// Registry owns every live session and hands out exclusive access to
// them one at a time.
type Registry struct {
	catalog *Catalog
	intn    Intn
	newID   func() string
	newCode func() string

	mu     sync.RWMutex
	byID   map[string]*Session
	byCode map[string]*Session
}

type RegistryOption func(*Registry)

// WithShuffleSource sets the random source used to shuffle decks.
func WithShuffleSource(intn Intn) RegistryOption {
	return func(r *Registry) { r.intn = intn }
}

func WithJoinCodes(gen func() string) RegistryOption {
	return func(r *Registry) { r.newCode = gen }
}

func WithSessionIDs(gen func() string) RegistryOption {
	return func(r *Registry) { r.newID = gen }
}

func NewRegistry(catalog *Catalog, opts ...RegistryOption) (*Registry, error) {
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	r := &Registry{
		catalog: catalog,
		intn:    rand.Intn,
		newID:   uuid.NewString,
		newCode: makeJoinCode,
		byID:    make(map[string]*Session),
		byCode:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func makeJoinCode() string {
	var b strings.Builder
	for i := 0; i < JoinCodeChars; i++ {
		b.WriteByte(joinCodeAlphabet[rand.Intn(len(joinCodeAlphabet))])
	}
	return b.String()
}

// NormalizeJoinCode upper-cases and trims code, reporting whether the
// result is a well-formed join code.
func NormalizeJoinCode(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != JoinCodeChars {
		return code, false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(joinCodeAlphabet, code[i]) < 0 {
			return code, false
		}
	}
	return code, true
}

// Create registers a new session owned by owner under a join code no
// live session is using.
func (r *Registry) Create(owner PlayerID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var code string
	for attempt := 0; ; attempt++ {
		if attempt == maxCodeAttempts {
			return nil, errors.New("could not allocate a join code")
		}
		c, ok := NormalizeJoinCode(r.newCode())
		if !ok {
			continue
		}
		if _, taken := r.byCode[c]; !taken {
			code = c
			break
		}
	}

	id := r.newID()
	if _, taken := r.byID[id]; taken {
		return nil, errors.New("duplicate session id")
	}

	s, err := newSession(id, code, owner, r.catalog, r.intn)
	if err != nil {
		return nil, err
	}
	r.byID[id] = s
	r.byCode[code] = s
	return s, nil
}

// Restore registers a previously persisted session.
func (r *Registry) Restore(rec SessionRecord) (*Session, error) {
	s, err := restoreSession(rec, r.catalog, r.intn)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byID[s.id]; taken {
		return nil, errors.New("session " + s.id + " is already registered")
	}
	if _, taken := r.byCode[s.joinCode]; taken {
		return nil, errors.New("join code " + s.joinCode + " is already in use")
	}
	r.byID[s.id] = s
	r.byCode[s.joinCode] = s
	return s, nil
}

func (r *Registry) FindByID(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.byID[id]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) FindByJoinCode(code string) (*Session, error) {
	code, ok := NormalizeJoinCode(code)
	if !ok {
		return nil, ErrInvalidJoinCode
	}

	r.mu.RLock()
	s, found := r.byCode[code]
	r.mu.RUnlock()

	if !found {
		return nil, ErrJoinCodeNotFound
	}
	return s, nil
}

// WithLock runs fn with exclusive access to the session. The lock is
// released however fn returns.
func (r *Registry) WithLock(id string, fn func(*Session) error) error {
	s, err := r.FindByID(id)
	if err != nil {
		return err
	}
	return lockSession(s, fn)
}

// WithLockByCode is WithLock for a session found by its join code.
func (r *Registry) WithLockByCode(code string, fn func(*Session) error) error {
	s, err := r.FindByJoinCode(code)
	if err != nil {
		return err
	}
	return lockSession(s, fn)
}

func lockSession(s *Session, fn func(*Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s)
}

// Remove drops a session and frees its join code.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return false
	}
	delete(r.byID, id)
	delete(r.byCode, s.joinCode)
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
