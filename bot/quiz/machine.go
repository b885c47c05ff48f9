package quiz

import (
	"errors"
	"time"
)

// AnswerTokens lists the answers accepted while a quiz is running, in display order.
var AnswerTokens = []string{"1", "2", "3", "4"}

// ErrNoActiveQuiz is returned by Submit when the chat has no quiz in progress.
var ErrNoActiveQuiz = errors.New("quiz: no active quiz")

// OutcomeKind tags the result of a submitted answer.
type OutcomeKind int

const (
	// OutcomeRejected means the answer token is not permitted; nothing changed.
	OutcomeRejected OutcomeKind = iota + 1
	// OutcomeContinued means the answer was graded and Next is the question to ask.
	OutcomeContinued
	// OutcomeFinished means the last question was answered and the run is graded.
	OutcomeFinished
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeRejected:
		return "rejected"
	case OutcomeContinued:
		return "continued"
	case OutcomeFinished:
		return "finished"
	}
	return "unknown"
}

// Outcome is the result of Submit.
type Outcome struct {
	Kind     OutcomeKind
	Right    bool
	Expected string
	Next     Question
	Tally    Tally
}

// StopResult is the result of Stop.
type StopResult struct {
	Tally     Tally
	WasActive bool
}

// Machine drives quiz runs for all chats over a shared bank.
type Machine struct {
	bank  *Bank
	store *Store
	total int
	now   func() time.Time
}

// NewMachine builds a state machine. total is the number of questions per run.
func NewMachine(bank *Bank, store *Store, total int) *Machine {
	return &Machine{bank: bank, store: store, total: total, now: time.Now}
}

// Total returns the number of questions in a run.
func (m *Machine) Total() int { return m.total }

// Session returns the session for a chat, creating it when needed.
func (m *Machine) Session(chatID int64) *Session {
	return m.store.GetOrCreate(chatID)
}

// InProgress reports whether the chat is in the middle of a run.
func (m *Machine) InProgress(chatID int64) bool {
	s, ok := m.store.Lookup(chatID)
	if !ok {
		return false
	}
	return s.Snapshot().Active
}

// Start begins a new run, discarding any run in progress, and returns the first question.
func (m *Machine) Start(chatID int64) (Question, Tally, error) {
	s := m.store.GetOrCreate(chatID)

	first, err := m.bank.Get(1)
	if err != nil {
		return Question{}, s.Snapshot(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Correct = 0
	s.Answered = 0
	s.Current = 1
	s.Total = m.total
	s.Active = true
	s.Runs++
	s.StartedAt = m.now()
	return first, s.tally(), nil
}

// Submit grades an answer for the current question.
// Bank lookups happen before any mutation so a failed lookup leaves the session as it was.
func (m *Machine) Submit(chatID int64, text string) (Outcome, error) {
	s := m.store.GetOrCreate(chatID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Active {
		return Outcome{Tally: s.tally()}, ErrNoActiveQuiz
	}

	if !IsAnswerToken(text) {
		return Outcome{Kind: OutcomeRejected, Tally: s.tally()}, nil
	}

	q, err := m.bank.Get(s.Current)
	if err != nil {
		return Outcome{Tally: s.tally()}, err
	}
	right := text == q.Answer

	nextIdx := s.Current + 1
	var next Question
	if nextIdx <= s.Total {
		next, err = m.bank.Get(nextIdx)
		if err != nil {
			return Outcome{Tally: s.tally()}, err
		}
	}

	if right {
		s.Correct++
	}
	s.Answered++
	out := Outcome{Right: right, Expected: q.Answer}
	if nextIdx > s.Total {
		s.Active = false
		s.Current = 0
		out.Kind = OutcomeFinished
	} else {
		s.Current = nextIdx
		out.Kind = OutcomeContinued
		out.Next = next
	}
	out.Tally = s.tally()
	return out, nil
}

// Stop ends the current run. Counters are kept so /result reflects the last run.
func (m *Machine) Stop(chatID int64) StopResult {
	s := m.store.GetOrCreate(chatID)

	s.mu.Lock()
	defer s.mu.Unlock()
	wasActive := s.Active
	s.Active = false
	s.Current = 0
	return StopResult{Tally: s.tally(), WasActive: wasActive}
}

// Result returns the tally of the last or current run.
func (m *Machine) Result(chatID int64) Tally {
	return m.store.GetOrCreate(chatID).Snapshot()
}

// IsAnswerToken reports whether s is one of AnswerTokens.
func IsAnswerToken(s string) bool {
	for _, t := range AnswerTokens {
		if s == t {
			return true
		}
	}
	return false
}

// Grade maps a score to the 2..5 scale.
func Grade(correct, total int) int {
	if total <= 0 {
		return 2
	}
	percent := float64(correct) * 100.0 / float64(total)
	switch {
	case percent >= 85:
		return 5
	case percent >= 65:
		return 4
	case percent >= 51:
		return 3
	default:
		return 2
	}
}
