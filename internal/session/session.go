// Package session holds per-browser dashboard state in memory.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/bobmcallan/finboard/internal/common"
	"github.com/bobmcallan/finboard/internal/models"
)

// CookieName is the cookie carrying the session ID.
const CookieName = "finboard_session"

// ErrInvalidEntry is returned when a roster entry fails validation.
var ErrInvalidEntry = errors.New("invalid roster entry")

// Session is one browser's state. It is never shared between sessions.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	lastSeen  time.Time
	roster    []models.RosterEntry
	selection models.Selection
	validate  *validator.Validate
}

// AddEntry appends a trimmed, validated entry to the roster. Invalid entries are not appended.
func (s *Session) AddEntry(entry models.RosterEntry) error {
	entry.FirstName = strings.TrimSpace(entry.FirstName)
	entry.LastName = strings.TrimSpace(entry.LastName)
	if err := s.validate.Struct(entry); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster = append(s.roster, entry)
	return nil
}

// Entries returns a copy of the roster in insertion order.
func (s *Session) Entries() []models.RosterEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.RosterEntry, len(s.roster))
	copy(out, s.roster)
	return out
}

// Selection returns the remembered dashboard inputs.
func (s *Session) Selection() models.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// UpdateSelection applies fn to the remembered inputs under the session lock.
func (s *Session) UpdateSelection(fn func(*models.Selection)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.selection)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Store keeps sessions in memory. Nothing survives a restart.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	validate *validator.Validate
	logger   *common.Logger
	now      func() time.Time
}

// NewStore creates an empty session store
func NewStore(logger *common.Logger) *Store {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Store{
		sessions: make(map[string]*Session),
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Get returns the session for id and marks it as seen.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	st.mu.Unlock()
	if ok {
		sess.touch(st.now())
	}
	return sess, ok
}

// GetOrCreate returns the session for id, creating a fresh one under a new ID when
// id is unknown. created reports whether a new session was made.
func (st *Store) GetOrCreate(id string) (sess *Session, created bool) {
	if id != "" {
		if sess, ok := st.Get(id); ok {
			return sess, false
		}
	}

	now := st.now()
	sess = &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		lastSeen:  now,
		roster:    []models.RosterEntry{},
		validate:  st.validate,
	}

	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()

	st.logger.Debug().Str("session_id", sess.ID).Msg("Session created")
	return sess, true
}

// Delete removes a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep removes sessions idle for at least ttl and returns how many were removed.
func (st *Store) Sweep(ttl time.Duration) int {
	now := st.now()
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, sess := range st.sessions {
		if now.Sub(sess.idleSince()) >= ttl {
			delete(st.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		st.logger.Debug().Int("expired", removed).Int("remaining", len(st.sessions)).Msg("Session sweep")
	}
	return removed
}
