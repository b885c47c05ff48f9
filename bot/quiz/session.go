package quiz

import (
	"sync"
	"time"
)

// Session holds quiz progress for one chat.
// Fields are guarded by mu; callers outside the package read them through Snapshot.
type Session struct {
	mu sync.Mutex

	ChatID   int64
	Current  int
	Correct  int
	Answered int
	Total    int
	Active   bool

	// Runs counts quiz runs started in this chat.
	Runs      int
	StartedAt time.Time
}

// Tally is an immutable copy of session counters.
type Tally struct {
	ChatID    int64
	Current   int
	Correct   int
	Answered  int
	Total     int
	Active    bool
	Runs      int
	StartedAt time.Time
}

// Grade derives the grade of the tally.
func (t Tally) Grade() int {
	return Grade(t.Correct, t.Total)
}

// Snapshot copies the session counters under its lock.
func (s *Session) Snapshot() Tally {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tally()
}

// tally must be called with mu held.
func (s *Session) tally() Tally {
	return Tally{
		ChatID:    s.ChatID,
		Current:   s.Current,
		Correct:   s.Correct,
		Answered:  s.Answered,
		Total:     s.Total,
		Active:    s.Active,
		Runs:      s.Runs,
		StartedAt: s.StartedAt,
	}
}

// Store maps chat identities to sessions for the lifetime of the process.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	total    int
}

// NewStore creates an empty store. New sessions are created with the given quiz length.
func NewStore(total int) *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		total:    total,
	}
}

// GetOrCreate returns the session for chatID, creating an idle one on first contact.
// Exactly one *Session ever exists per chat id.
func (st *Store) GetOrCreate(chatID int64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.sessions[chatID]; ok {
		return s
	}
	s := &Session{ChatID: chatID, Total: st.total}
	st.sessions[chatID] = s
	return s
}

// Lookup returns the session for chatID without creating it.
func (st *Store) Lookup(chatID int64) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[chatID]
	return s, ok
}

// Len reports how many chats have a session.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
