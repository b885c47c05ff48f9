package quiz

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

// testBank builds a bank of n questions where question i expects answer ((i-1)%4)+1.
func testBank(t *testing.T, n int) *Bank {
	t.Helper()
	items := make(map[string]bankItem, n)
	for i := 1; i <= n; i++ {
		items[fmt.Sprint(i)] = bankItem{
			Path:   fmt.Sprintf("q/%d.png", i),
			Title:  fmt.Sprintf("Question %d", i),
			Answer: fmt.Sprint((i-1)%4 + 1),
		}
	}
	b, err := newBank(items, "")
	if err != nil {
		t.Fatalf("newBank: %v", err)
	}
	return b
}

func newTestMachine(t *testing.T, bankSize, total int) *Machine {
	t.Helper()
	return NewMachine(testBank(t, bankSize), NewStore(total), total)
}

func correctAnswer(index int) string {
	return fmt.Sprint((index-1)%4 + 1)
}

func TestGradeBoundaries(t *testing.T) {
	cases := []struct {
		correct, total, want int
	}{
		{9, 10, 5},
		{7, 10, 4},
		{6, 10, 3},
		{5, 10, 2},
		{17, 20, 5}, // 85%
		{13, 20, 4}, // 65%
		{51, 100, 3},
		{50, 100, 2},
		{0, 10, 2},
		{10, 10, 5},
		{0, 0, 2},
	}
	for _, tc := range cases {
		if got := Grade(tc.correct, tc.total); got != tc.want {
			t.Errorf("Grade(%d, %d) = %d, want %d", tc.correct, tc.total, got, tc.want)
		}
	}
}

func TestStartResetsSession(t *testing.T) {
	m := newTestMachine(t, 5, 5)
	const chat = int64(10)

	if _, _, err := m.Start(chat); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 1; i <= 2; i++ {
		if _, err := m.Submit(chat, correctAnswer(i)); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	q, tally, err := m.Start(chat)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if q.Index != 1 {
		t.Fatalf("first question index = %d, want 1", q.Index)
	}
	if tally.Correct != 0 || tally.Current != 1 || !tally.Active {
		t.Fatalf("restart did not reset session: %+v", tally)
	}
	if tally.Runs != 2 {
		t.Fatalf("Runs = %d, want 2", tally.Runs)
	}
}

func TestSubmitRejectsInvalidTokens(t *testing.T) {
	m := newTestMachine(t, 3, 3)
	const chat = int64(1)
	if _, _, err := m.Start(chat); err != nil {
		t.Fatalf("Start: %v", err)
	}
	before := m.Result(chat)
	for _, tok := range []string{"9", "0", "a", "", "12", "один", " 1", "1\n", " 2 "} {
		out, err := m.Submit(chat, tok)
		if err != nil {
			t.Fatalf("Submit(%q): %v", tok, err)
		}
		if out.Kind != OutcomeRejected {
			t.Fatalf("Submit(%q) kind = %s, want rejected", tok, out.Kind)
		}
	}
	after := m.Result(chat)
	if after.Current != before.Current || after.Correct != before.Correct {
		t.Fatalf("rejected answers changed state: before %+v after %+v", before, after)
	}
}

func TestRunFinishesAfterTotalAnswers(t *testing.T) {
	const total = 4
	m := newTestMachine(t, 6, total)
	const chat = int64(2)
	if _, _, err := m.Start(chat); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var out Outcome
	var err error
	for i := 1; i <= total; i++ {
		answer := correctAnswer(i)
		if i == 2 {
			answer = correctAnswer(i + 1)
		}
		out, err = m.Submit(chat, answer)
		if err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
		if i < total && out.Kind != OutcomeContinued {
			t.Fatalf("answer %d kind = %s, want continued", i, out.Kind)
		}
		if i < total && out.Next.Index != i+1 {
			t.Fatalf("answer %d next = %d, want %d", i, out.Next.Index, i+1)
		}
	}
	if out.Kind != OutcomeFinished {
		t.Fatalf("final kind = %s, want finished", out.Kind)
	}
	if out.Tally.Active || out.Tally.Current != 0 {
		t.Fatalf("finished run still active: %+v", out.Tally)
	}
	if out.Tally.Correct != 3 || out.Tally.Total != total {
		t.Fatalf("tally = %d/%d, want 3/%d", out.Tally.Correct, out.Tally.Total, total)
	}
	if out.Tally.Grade() != 4 {
		t.Fatalf("grade = %d, want 4", out.Tally.Grade())
	}
	if _, err := m.Submit(chat, "1"); !errors.Is(err, ErrNoActiveQuiz) {
		t.Fatalf("Submit after finish: expected ErrNoActiveQuiz, got %v", err)
	}
}

func TestScenarioCorrectRejectedWrong(t *testing.T) {
	m := newTestMachine(t, 5, 5)
	const chat = int64(3)

	q, _, err := m.Start(chat)
	if err != nil || q.Index != 1 {
		t.Fatalf("Start: q=%d err=%v", q.Index, err)
	}

	out, err := m.Submit(chat, correctAnswer(1))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !out.Right || out.Kind != OutcomeContinued || out.Next.Index != 2 {
		t.Fatalf("correct answer: %+v", out)
	}

	out, err = m.Submit(chat, "9")
	if err != nil || out.Kind != OutcomeRejected {
		t.Fatalf("out of range token: kind=%s err=%v", out.Kind, err)
	}
	if m.Result(chat).Current != 2 {
		t.Fatalf("rejected token moved index to %d", m.Result(chat).Current)
	}

	out, err = m.Submit(chat, correctAnswer(3))
	if err != nil {
		t.Fatalf("Submit wrong: %v", err)
	}
	if out.Right || out.Expected != correctAnswer(2) || out.Next.Index != 3 {
		t.Fatalf("wrong answer: %+v", out)
	}
	if out.Tally.Correct != 1 {
		t.Fatalf("Correct = %d, want 1", out.Tally.Correct)
	}
}

func TestSubmitBeyondBankLeavesSessionUnchanged(t *testing.T) {
	// Runs are longer than the bank, so question 3 cannot be resolved.
	m := newTestMachine(t, 2, 3)
	const chat = int64(4)
	if _, _, err := m.Start(chat); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := m.Submit(chat, correctAnswer(1)); err != nil {
		t.Fatalf("Submit 1: %v", err)
	}
	before := m.Result(chat)

	_, err := m.Submit(chat, correctAnswer(2))
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %v", err)
	}
	if nf.Index != 3 {
		t.Fatalf("NotFoundError.Index = %d, want 3", nf.Index)
	}
	after := m.Result(chat)
	if before.Current != after.Current || before.Correct != after.Correct || before.Active != after.Active {
		t.Fatalf("session changed on lookup failure: before %+v after %+v", before, after)
	}

	res := m.Stop(chat)
	if !res.WasActive || res.Tally.Active {
		t.Fatalf("stop after failure: %+v", res)
	}
}

func TestStartOnEmptyRunFails(t *testing.T) {
	m := NewMachine(nil, NewStore(1), 1)
	_, tally, err := m.Start(5)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %v", err)
	}
	if tally.Active || tally.Runs != 0 {
		t.Fatalf("failed start mutated session: %+v", tally)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	m := newTestMachine(t, 4, 4)
	const chat = int64(6)
	if _, _, err := m.Start(chat); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := m.Submit(chat, correctAnswer(1)); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	first := m.Stop(chat)
	second := m.Stop(chat)
	if !first.WasActive || second.WasActive {
		t.Fatalf("WasActive: first=%v second=%v", first.WasActive, second.WasActive)
	}
	if first.Tally.Correct != 1 || first.Tally.Total != 4 {
		t.Fatalf("stop tally = %+v", first.Tally)
	}
	if first.Tally != second.Tally {
		t.Fatalf("second stop changed tally: %+v vs %+v", first.Tally, second.Tally)
	}
	if r := m.Result(chat); r.Correct != 1 || r.Active {
		t.Fatalf("result after stop = %+v", r)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	m := newTestMachine(t, 4, 4)
	if _, _, err := m.Start(100); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, _, err := m.Start(200); err != nil {
		t.Fatalf("Start: %v", err)
	}
	before := m.Result(200)

	if _, err := m.Submit(100, correctAnswer(1)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	m.Stop(100)

	if after := m.Result(200); after != before {
		t.Fatalf("chat 200 changed by chat 100: before %+v after %+v", before, after)
	}
}

func TestStoreGetOrCreateConcurrent(t *testing.T) {
	st := NewStore(3)
	const workers = 64
	got := make([]*Session, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			got[i] = st.GetOrCreate(42)
			st.GetOrCreate(int64(1000 + i))
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if got[i] != got[0] {
			t.Fatalf("GetOrCreate returned distinct sessions for the same chat")
		}
	}
	if st.Len() != workers+1 {
		t.Fatalf("Len = %d, want %d", st.Len(), workers+1)
	}
	if s := got[0].Snapshot(); s.Active || s.Current != 0 || s.Total != 3 {
		t.Fatalf("new session not idle: %+v", s)
	}
}

func TestConcurrentSubmitsSameChat(t *testing.T) {
	const total = 50
	m := newTestMachine(t, total, total)
	const chat = int64(7)
	if _, _, err := m.Start(chat); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(total)
	for i := 0; i < total; i++ {
		go func() {
			defer wg.Done()
			_, _ = m.Submit(chat, "1")
		}()
	}
	wg.Wait()

	r := m.Result(chat)
	if r.Active || r.Current != 0 {
		t.Fatalf("expected finished run after %d answers, got %+v", total, r)
	}
}
