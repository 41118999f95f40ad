// Package condition validates the condition fields of a bot as the user
// types: local syntax first, then a debounced call to the backend whose
// answers are applied in edit order.
package condition

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/DamienReichhart/TradeForge-sub000/pkg/expr"
)

const (
	// DefaultDebounce is the settle time after the last keystroke.
	DefaultDebounce = 500 * time.Millisecond
	// DefaultTimeout bounds a single backend validation call.
	DefaultTimeout = 10 * time.Second
	// FailedToValidate is shown when the backend could not be reached.
	FailedToValidate = "Failed to validate expression"
)

// Remote is the backend expression validator.
type Remote interface {
	ValidateExpression(ctx context.Context, expression string, kind expr.Kind) (expr.Verdict, error)
}

// Status is one validity update for a field. Seq increases with every edit
// of that field.
type Status struct {
	Field    expr.Field    `json:"field"`
	Seq      uint64        `json:"seq"`
	Validity expr.Validity `json:"-"`
}

// Option configures a Validator.
type Option func(*Validator)

func WithDebounce(d time.Duration) Option {
	return func(v *Validator) {
		if d >= 0 {
			v.debounce = d
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(v *Validator) {
		if d > 0 {
			v.timeout = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(v *Validator) { v.log = l }
}

// Hooks observe the remote calls of a Validator.
type Hooks struct {
	OnRequest func(field expr.Field, seq uint64)
	OnResult  func(field expr.Field, seq uint64, v expr.Validity, took time.Duration)
	OnStale   func(field expr.Field, seq uint64)
}

func WithHooks(h Hooks) Option {
	return func(v *Validator) { v.hooks = h }
}

type fieldState struct {
	seq     uint64 // latest edit
	applied uint64 // seq of the status currently shown
	timer   *time.Timer
	current expr.Validity
}

// Validator owns the per-field debounce timers and sequence counters of one
// editor. It is safe for concurrent use.
type Validator struct {
	remote   Remote
	notify   func(Status)
	debounce time.Duration
	timeout  time.Duration
	log      zerolog.Logger
	hooks    Hooks

	mu       sync.Mutex
	fields   map[expr.Field]*fieldState
	closed   bool
	wg       sync.WaitGroup
	queue    []Status // statuses waiting for notify, in the order they were decided
	draining bool     // a goroutine is delivering the queue
}

// New creates a Validator. notify receives status changes one at a time, in
// the order they were decided, and only while the status still belongs to
// the latest edit of its field. It is called from whichever goroutine is
// delivering (Submit's caller or a timer), may call Submit itself, and must
// not block for long.
func New(remote Remote, notify func(Status), opts ...Option) *Validator {
	v := &Validator{
		remote:   remote,
		notify:   notify,
		debounce: DefaultDebounce,
		timeout:  DefaultTimeout,
		log:      zerolog.Nop(),
		fields:   make(map[expr.Field]*fieldState),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.notify == nil {
		v.notify = func(Status) {}
	}
	return v
}

func (v *Validator) state(f expr.Field) *fieldState {
	st, ok := v.fields[f]
	if !ok {
		st = &fieldState{current: expr.Untested()}
		v.fields[f] = st
	}
	return st
}

// Submit records a new value for field and returns its sequence number.
// Empty text and local failures are decided immediately; anything else
// reports Validating and schedules a backend check once the field has been
// quiet for the debounce window. A newer Submit cancels the pending timer but
// not a request already in flight.
func (v *Validator) Submit(field expr.Field, text string) uint64 {
	local, needsRemote := expr.Local(text)

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return 0
	}
	st := v.state(field)
	st.seq++
	seq := st.seq
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	st.current = local
	if !needsRemote {
		st.applied = seq
	} else {
		st.timer = time.AfterFunc(v.debounce, func() { v.fire(field, seq, text) })
	}
	v.queue = append(v.queue, Status{Field: field, Seq: seq, Validity: local})
	v.deliver()
	return seq
}

func (v *Validator) fire(field expr.Field, seq uint64, text string) {
	v.mu.Lock()
	st := v.state(field)
	if v.closed || st.seq != seq {
		v.mu.Unlock()
		return
	}
	st.timer = nil
	v.wg.Add(1)
	v.mu.Unlock()
	defer v.wg.Done()

	if v.hooks.OnRequest != nil {
		v.hooks.OnRequest(field, seq)
	}
	start := time.Now()
	result := Check(context.Background(), v.remote, field.Kind(), text, v.timeout)
	took := time.Since(start)
	if result.State == expr.StateInvalid && result.Reason == FailedToValidate {
		v.log.Warn().Str("field", string(field)).Uint64("seq", seq).Dur("took", took).Msg("remote validation failed")
	}
	if v.hooks.OnResult != nil {
		v.hooks.OnResult(field, seq, result, took)
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	// Only the answer for the latest edit may be shown; anything older
	// belongs to text the user has already changed.
	if seq != st.seq || seq <= st.applied {
		v.mu.Unlock()
		v.log.Debug().Str("field", string(field)).Uint64("seq", seq).Uint64("latest", st.seq).Msg("dropping stale verdict")
		if v.hooks.OnStale != nil {
			v.hooks.OnStale(field, seq)
		}
		return
	}
	st.applied = seq
	st.current = result
	v.queue = append(v.queue, Status{Field: field, Seq: seq, Validity: result})
	v.deliver()
}

// deliver hands queued statuses to notify. It must be called with v.mu held
// and returns with it released. Only one goroutine delivers at a time; a
// status queued meanwhile, even from inside notify, is delivered by that
// goroutine after the current one. A status whose field has been edited
// again by the time its turn comes is skipped, so the last status delivered
// for a field is always the one for its latest edit.
func (v *Validator) deliver() {
	if v.draining {
		v.mu.Unlock()
		return
	}
	v.draining = true
	for len(v.queue) > 0 && !v.closed {
		s := v.queue[0]
		v.queue = v.queue[1:]
		if v.fields[s.Field].seq != s.Seq {
			continue
		}
		v.mu.Unlock()
		v.notify(s)
		v.mu.Lock()
	}
	v.queue = nil
	v.draining = false
	v.mu.Unlock()
}

// Current returns the validity shown for field.
func (v *Validator) Current(field expr.Field) expr.Validity {
	v.mu.Lock()
	defer v.mu.Unlock()
	if st, ok := v.fields[field]; ok {
		return st.current
	}
	return expr.Untested()
}

// Close stops pending timers and suppresses any status still in flight. It
// waits for running remote calls to return.
func (v *Validator) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	for _, st := range v.fields {
		if st.timer != nil {
			st.timer.Stop()
			st.timer = nil
		}
	}
	v.mu.Unlock()
	v.wg.Wait()
}

// Check runs the full pipeline synchronously, without debounce. A transport
// or server failure becomes Invalid(FailedToValidate).
func Check(ctx context.Context, remote Remote, kind expr.Kind, text string, timeout time.Duration) expr.Validity {
	local, needsRemote := expr.Local(text)
	if !needsRemote {
		return local
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	verdict, err := remote.ValidateExpression(ctx, text, kind)
	if err != nil {
		return expr.Invalid(FailedToValidate)
	}
	return expr.FromVerdict(verdict)
}
