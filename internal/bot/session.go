package bot

import (
	"sync"
	"time"
)

// Step identifies where a user is inside a conversation flow.
type Step string

// Session steps. A session is only ever in one step; AwaitingField carries
// the pending field name in Session.Field.
const (
	StepIdle       Step = "idle"
	StepAwaiting   Step = "awaiting_field"
	StepConfirming Step = "confirming"
	StepCompleted  Step = "completed"
)

// FieldValue is one collected field. Session.Values keeps insertion order,
// which equals prompt order.
type FieldValue struct {
	Name  string
	Value string
}

// Session is the per-user conversation state. It is a plain value: the
// store hands out copies, and callers write changes back with Put, so a
// half-mutated session is never visible to another reader.
type Session struct {
	UserID    string
	Step      Step
	Field     string // field awaited when Step == StepAwaiting
	Values    []FieldValue
	Retries   int // consecutive invalid inputs for the current field
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the session has an in-progress flow.
func (s *Session) Active() bool {
	return s.Step == StepAwaiting || s.Step == StepConfirming
}

// Value returns the collected value for a field name.
func (s *Session) Value(name string) (string, bool) {
	for _, fv := range s.Values {
		if fv.Name == name {
			return fv.Value, true
		}
	}
	return "", false
}

// reset returns the session to Idle, discarding collected fields.
// UpdatedAt is stamped by the store on Put.
func (s *Session) reset() {
	s.Step = StepIdle
	s.Field = ""
	s.Values = nil
	s.Retries = 0
}

// SessionStore holds one Session per user. All reads return copies and all
// writes are whole-session replacements.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	now      func() time.Time
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

// Get returns the session for userID, creating an Idle one if absent.
func (st *SessionStore) Get(userID string) Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.sessions[userID]; ok {
		return cloneSession(s)
	}
	now := st.now()
	s := Session{UserID: userID, Step: StepIdle, CreatedAt: now, UpdatedAt: now}
	st.sessions[userID] = s
	return cloneSession(s)
}

// Put replaces the stored session for s.UserID and stamps UpdatedAt.
func (st *SessionStore) Put(s Session) {
	s.UpdatedAt = st.now()
	st.mu.Lock()
	st.sessions[s.UserID] = cloneSession(s)
	st.mu.Unlock()
}

// Reset returns the user's session to Idle, discarding collected fields.
func (st *SessionStore) Reset(userID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[userID]; ok {
		s.reset()
		s.UpdatedAt = st.now()
		st.sessions[userID] = s
	}
}

// EvictStale removes sessions whose UpdatedAt is older than maxAge and
// returns the number evicted. Abandoned flows lose their collected fields;
// the user simply starts over.
func (st *SessionStore) EvictStale(maxAge time.Duration) int {
	cutoff := st.now().Add(-maxAge)
	st.mu.Lock()
	defer st.mu.Unlock()

	evicted := 0
	for id, s := range st.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(st.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of tracked sessions.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// cloneSession deep-copies a session so stored state and caller state
// never alias the same Values slice.
func cloneSession(s Session) Session {
	if s.Values != nil {
		vals := make([]FieldValue, len(s.Values))
		copy(vals, s.Values)
		s.Values = vals
	}
	return s
}
