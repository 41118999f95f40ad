package condition

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DamienReichhart/TradeForge-sub000/pkg/cache"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/expr"
)

type call struct {
	expression string
	kind       expr.Kind
}

// fakeRemote answers valid unless the expression is listed in invalid. An
// expression listed in block waits on its channel before answering.
type fakeRemote struct {
	mu      sync.Mutex
	calls   []call
	invalid map[string]string
	block   map[string]chan struct{}
	started chan string
	err     error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		invalid: map[string]string{},
		block:   map[string]chan struct{}{},
		started: make(chan string, 16),
	}
}

func (f *fakeRemote) ValidateExpression(ctx context.Context, expression string, kind expr.Kind) (expr.Verdict, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{expression, kind})
	wait := f.block[expression]
	reason, bad := f.invalid[expression]
	err := f.err
	f.mu.Unlock()

	f.started <- expression
	if wait != nil {
		<-wait
	}
	if err != nil {
		return expr.Verdict{}, err
	}
	if bad {
		return expr.Verdict{Valid: false, Error: reason}, nil
	}
	return expr.Verdict{Valid: true}, nil
}

func (f *fakeRemote) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]call, len(f.calls))
	copy(out, f.calls)
	return out
}

type recorder struct {
	ch chan Status
}

func newRecorder() *recorder { return &recorder{ch: make(chan Status, 64)} }

func (r *recorder) notify(s Status) { r.ch <- s }

func (r *recorder) next(t *testing.T) Status {
	t.Helper()
	select {
	case s := <-r.ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for status")
		return Status{}
	}
}

func (r *recorder) none(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case s := <-r.ch:
		t.Fatalf("unexpected status %+v", s)
	case <-time.After(d):
	}
}

func TestEmptyIsUntestedWithoutCall(t *testing.T) {
	remote := newFakeRemote()
	rec := newRecorder()
	v := New(remote, rec.notify, WithDebounce(10*time.Millisecond))
	defer v.Close()

	v.Submit(expr.BuyCondition, "   ")
	s := rec.next(t)
	if s.Validity.State != expr.StateUntested || s.Seq != 1 {
		t.Fatalf("status = %+v", s)
	}
	rec.none(t, 50*time.Millisecond)
	if len(remote.Calls()) != 0 {
		t.Fatal("empty input must not reach the backend")
	}
}

func TestUnbalancedIsLocal(t *testing.T) {
	remote := newFakeRemote()
	rec := newRecorder()
	v := New(remote, rec.notify, WithDebounce(10*time.Millisecond))
	defer v.Close()

	v.Submit(expr.SellCondition, "(close > open")
	s := rec.next(t)
	if s.Validity.State != expr.StateInvalid || s.Validity.Reason != expr.ReasonUnbalanced {
		t.Fatalf("status = %+v", s)
	}
	rec.none(t, 50*time.Millisecond)
	if len(remote.Calls()) != 0 {
		t.Fatal("local failure must not reach the backend")
	}
}

func TestDebounceCollapsesRapidEdits(t *testing.T) {
	remote := newFakeRemote()
	rec := newRecorder()
	v := New(remote, rec.notify, WithDebounce(80*time.Millisecond))
	defer v.Close()

	edits := []string{"c", "cl", "clo", "close > o", "close > open"}
	for _, e := range edits {
		v.Submit(expr.BuyCondition, e)
		time.Sleep(5 * time.Millisecond)
	}
	for i := range edits {
		s := rec.next(t)
		if s.Validity.State != expr.StateValidating || s.Seq != uint64(i+1) {
			t.Fatalf("edit %d status = %+v", i, s)
		}
	}
	final := rec.next(t)
	if final.Validity.State != expr.StateValid || final.Seq != 5 {
		t.Fatalf("final = %+v", final)
	}
	calls := remote.Calls()
	if len(calls) != 1 || calls[0].expression != "close > open" || calls[0].kind != expr.KindCondition {
		t.Fatalf("calls = %+v", calls)
	}
}

func TestServerRejection(t *testing.T) {
	remote := newFakeRemote()
	remote.invalid["foo > 1"] = "name 'foo' is not defined"
	rec := newRecorder()
	v := New(remote, rec.notify, WithDebounce(time.Millisecond))
	defer v.Close()

	v.Submit(expr.TakeProfit, "foo > 1")
	rec.next(t) // validating
	s := rec.next(t)
	if s.Validity.State != expr.StateInvalid || s.Validity.Reason != "name 'foo' is not defined" {
		t.Fatalf("status = %+v", s)
	}
	if calls := remote.Calls(); calls[0].kind != expr.KindCalculation {
		t.Fatalf("take profit must validate as calculation, got %s", calls[0].kind)
	}
}

func TestNetworkFailure(t *testing.T) {
	remote := newFakeRemote()
	remote.err = errors.New("connection refused")
	rec := newRecorder()
	v := New(remote, rec.notify, WithDebounce(time.Millisecond))
	defer v.Close()

	v.Submit(expr.BuyCondition, "close > open")
	rec.next(t)
	s := rec.next(t)
	if s.Validity.State != expr.StateInvalid || s.Validity.Reason != FailedToValidate {
		t.Fatalf("status = %+v", s)
	}
	if s.Validity.Message() != "Invalid expression: Failed to validate expression" {
		t.Fatalf("message = %q", s.Validity.Message())
	}
	if len(remote.Calls()) != 1 {
		t.Fatal("failures must not be retried")
	}
}

func TestSlowOlderResponseIsDropped(t *testing.T) {
	remote := newFakeRemote()
	release := make(chan struct{})
	remote.block["close > open"] = release
	remote.invalid["close > open"] = "old verdict"

	var stale []uint64
	var staleMu sync.Mutex
	rec := newRecorder()
	v := New(remote, rec.notify, WithDebounce(time.Millisecond), WithHooks(Hooks{
		OnStale: func(_ expr.Field, seq uint64) {
			staleMu.Lock()
			stale = append(stale, seq)
			staleMu.Unlock()
		},
	}))
	defer v.Close()

	v.Submit(expr.BuyCondition, "close > open")
	rec.next(t) // validating seq 1
	<-remote.started

	v.Submit(expr.BuyCondition, "close >= open")
	rec.next(t) // validating seq 2
	<-remote.started
	s := rec.next(t)
	if s.Seq != 2 || s.Validity.State != expr.StateValid {
		t.Fatalf("newer verdict = %+v", s)
	}

	close(release)
	rec.none(t, 100*time.Millisecond)
	if got := v.Current(expr.BuyCondition); got.State != expr.StateValid {
		t.Fatalf("current = %v, stale answer overwrote the newer one", got)
	}
	staleMu.Lock()
	defer staleMu.Unlock()
	if len(stale) != 1 || stale[0] != 1 {
		t.Fatalf("stale = %v", stale)
	}
}

func TestLocalVerdictSupersedesInFlight(t *testing.T) {
	remote := newFakeRemote()
	release := make(chan struct{})
	remote.block["a > b"] = release
	rec := newRecorder()
	v := New(remote, rec.notify, WithDebounce(time.Millisecond))
	defer v.Close()

	v.Submit(expr.SellCondition, "a > b")
	rec.next(t)
	<-remote.started

	v.Submit(expr.SellCondition, "")
	if s := rec.next(t); s.Validity.State != expr.StateUntested || s.Seq != 2 {
		t.Fatalf("status = %+v", s)
	}
	close(release)
	rec.none(t, 100*time.Millisecond)
	if got := v.Current(expr.SellCondition); got.State != expr.StateUntested {
		t.Fatalf("current = %v", got)
	}
}

// An edit made while the remote verdict for the previous text is being
// handed out must be the last thing the editor sees.
func TestEditDuringVerdictDeliveryWins(t *testing.T) {
	remote := newFakeRemote()
	var (
		mu     sync.Mutex
		seen   []Status
		edited bool
		v      *Validator
	)
	notify := func(s Status) {
		mu.Lock()
		edit := !edited && s.Seq == 1 && s.Validity.State == expr.StateValid
		if edit {
			edited = true
		}
		mu.Unlock()
		if edit {
			v.Submit(expr.BuyCondition, "(close > high")
		}
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	}
	v = New(remote, notify, WithDebounce(time.Millisecond))
	defer v.Close()

	v.Submit(expr.BuyCondition, "close > high")

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		got := append([]Status(nil), seen...)
		mu.Unlock()
		if len(got) >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("statuses = %+v", got)
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 {
		t.Fatalf("statuses = %+v", seen)
	}
	last := seen[len(seen)-1]
	if last.Seq != 2 || last.Validity.State != expr.StateInvalid || last.Validity.Reason != expr.ReasonUnbalanced {
		t.Fatalf("last status = %+v, want seq 2 unbalanced", last)
	}
	if got := v.Current(expr.BuyCondition); got.State != expr.StateInvalid {
		t.Fatalf("current = %v", got)
	}
}

func TestFieldsAreIndependent(t *testing.T) {
	remote := newFakeRemote()
	remote.invalid["x"] = "bad"
	tracker := NewTracker()
	done := make(chan struct{}, 8)
	v := New(remote, func(s Status) {
		tracker.Apply(s)
		if s.Validity.Final() {
			done <- struct{}{}
		}
	}, WithDebounce(20*time.Millisecond))
	defer v.Close()

	v.Submit(expr.BuyCondition, "close > open")
	v.Submit(expr.SellCondition, "x")
	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out")
		}
	}
	if tracker.Get(expr.BuyCondition).State != expr.StateValid {
		t.Fatal("buy should be valid")
	}
	if tracker.Get(expr.SellCondition).State != expr.StateInvalid {
		t.Fatal("sell should be invalid")
	}
	if tracker.AllValid(expr.BuyCondition, expr.SellCondition) {
		t.Fatal("AllValid must be false")
	}
	if !tracker.AllValid(expr.BuyCondition) {
		t.Fatal("AllValid(buy) must be true")
	}
}

func TestCloseCancelsPendingTimer(t *testing.T) {
	remote := newFakeRemote()
	rec := newRecorder()
	v := New(remote, rec.notify, WithDebounce(50*time.Millisecond))

	v.Submit(expr.BuyCondition, "close > open")
	rec.next(t)
	v.Close()
	time.Sleep(100 * time.Millisecond)
	if len(remote.Calls()) != 0 {
		t.Fatal("closed validator must not call the backend")
	}
	if seq := v.Submit(expr.BuyCondition, "a"); seq != 0 {
		t.Fatalf("Submit after Close returned %d", seq)
	}
}

func TestHooksObserveRequests(t *testing.T) {
	remote := newFakeRemote()
	var requests, results int32
	rec := newRecorder()
	v := New(remote, rec.notify, WithDebounce(time.Millisecond), WithHooks(Hooks{
		OnRequest: func(expr.Field, uint64) { atomic.AddInt32(&requests, 1) },
		OnResult:  func(expr.Field, uint64, expr.Validity, time.Duration) { atomic.AddInt32(&results, 1) },
	}))
	defer v.Close()

	v.Submit(expr.StopLoss, "current_price <= entry_price * 0.95")
	rec.next(t)
	rec.next(t)
	if atomic.LoadInt32(&requests) != 1 || atomic.LoadInt32(&results) != 1 {
		t.Fatalf("requests=%d results=%d", requests, results)
	}
}

func TestTrackerDropsOlderStatus(t *testing.T) {
	tr := NewTracker()
	if !tr.Apply(Status{Field: expr.BuyCondition, Seq: 3, Validity: expr.Valid()}) {
		t.Fatal("first apply rejected")
	}
	if tr.Apply(Status{Field: expr.BuyCondition, Seq: 2, Validity: expr.Invalid("old")}) {
		t.Fatal("older status accepted")
	}
	if tr.Get(expr.BuyCondition).State != expr.StateValid {
		t.Fatal("older status overwrote newer")
	}
	if tr.Get(expr.TakeProfit).State != expr.StateUntested {
		t.Fatal("unseen field must be untested")
	}
	if len(tr.Snapshot()) != 1 {
		t.Fatal("snapshot size")
	}
}

func TestCheck(t *testing.T) {
	remote := newFakeRemote()
	ctx := context.Background()
	if got := Check(ctx, remote, expr.KindCondition, "", 0); got.State != expr.StateUntested {
		t.Fatalf("empty = %v", got)
	}
	if got := Check(ctx, remote, expr.KindCondition, "(a", 0); got.Reason != expr.ReasonUnbalanced {
		t.Fatalf("unbalanced = %v", got)
	}
	if got := Check(ctx, remote, expr.KindCondition, "a > b", time.Second); got.State != expr.StateValid {
		t.Fatalf("valid = %v", got)
	}
}

func TestCachedRemote(t *testing.T) {
	remote := newFakeRemote()
	verdicts := cache.NewVerdictCache(time.Minute)
	cached := NewCachedRemote(remote, verdicts, "u1")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if v, err := cached.ValidateExpression(ctx, "a > b", expr.KindCondition); err != nil || !v.Valid {
			t.Fatalf("verdict = %+v, %v", v, err)
		}
	}
	if n := len(remote.Calls()); n != 1 {
		t.Fatalf("calls = %d, want 1", n)
	}

	remote.err = errors.New("down")
	cached.ValidateExpression(ctx, "c > d", expr.KindCondition)
	remote.err = nil
	cached.ValidateExpression(ctx, "c > d", expr.KindCondition)
	if n := len(remote.Calls()); n != 3 {
		t.Fatalf("failures must not be cached, calls = %d", n)
	}

	other := NewCachedRemote(remote, verdicts, "u2")
	other.ValidateExpression(ctx, "a > b", expr.KindCondition)
	if n := len(remote.Calls()); n != 4 {
		t.Fatalf("another scope must ask the backend, calls = %d", n)
	}
}
