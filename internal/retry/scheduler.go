// Package retry wraps an arbitrary interface behind a single background
// goroutine that retries a scheduled callback at caller-specified
// intervals until the callback requests a stop or is replaced.
package retry

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/LizardByte/libdisplaydevice-sub001/internal/logging"
)

// Execution controls how a newly-scheduled callback behaves on the calling
// thread before the background goroutine takes over.
type Execution int

const (
	// ExecutionImmediate runs the callback once on the calling goroutine,
	// then schedules it for retry.
	ExecutionImmediate Execution = iota
	// ExecutionImmediateWithSleep takes the first duration from
	// SleepDurations, sleeps for it on the calling goroutine, then behaves
	// like ExecutionImmediate.
	ExecutionImmediateWithSleep
	// ExecutionScheduledOnly never runs the callback on the calling
	// goroutine; it only ever runs on the background goroutine.
	ExecutionScheduledOnly
)

// SchedulerOptions configures a scheduled callback.
type SchedulerOptions struct {
	// SleepDurations are consumed front-to-back between retries; once only
	// one remains it is reused indefinitely as the steady-state interval.
	SleepDurations []time.Duration
	Execution      Execution
}

// ExecFunc is a callback given thread-safe access to the wrapped interface
// and a StopToken it can use to end its own retry schedule.
type ExecFunc[T any] func(iface T, stop *StopToken)

// Scheduler wraps an interface and allows scheduling arbitrary logic for it
// to retry until it succeeds. Only one callback is scheduled at a time;
// scheduling a new one replaces whatever was previously scheduled.
type Scheduler[T any] struct {
	iface T

	mu             sync.Mutex
	sleepDurations []time.Duration
	retryFunction  ExecFunc[T]
	keepAlive      bool

	wake chan struct{}
	done chan struct{}
}

// NewScheduler constructs a Scheduler around iface and starts its
// background goroutine. It panics if iface is a nil pointer/interface —
// that is a programming error at the call site.
func NewScheduler[T any](iface T) *Scheduler[T] {
	if isNilValue(iface) {
		panic("retry: nil interface provided to NewScheduler")
	}

	s := &Scheduler[T]{
		iface:     iface,
		keepAlive: true,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go s.run()
	return s
}

// Close stops the background goroutine and waits for it to exit. A
// Scheduler must not be used after Close returns.
func (s *Scheduler[T]) Close() {
	s.mu.Lock()
	s.keepAlive = false
	s.syncThreadLocked()
	s.mu.Unlock()
	<-s.done
}

// Schedule replaces any previously scheduled callback with execFn, to be
// retried per options. It validates options and returns an error rather
// than panicking, since (unlike construction) a bad Schedule call is an
// ordinary runtime condition a caller may want to recover from.
func (s *Scheduler[T]) Schedule(execFn ExecFunc[T], options SchedulerOptions) error {
	if execFn == nil {
		return errors.New("retry: nil callback provided to Schedule")
	}
	if len(options.SleepDurations) == 0 {
		return errors.New("retry: at least one sleep duration must be specified")
	}
	for _, d := range options.SleepDurations {
		if d <= 0 {
			return errors.New("retry: all sleep durations must be greater than zero")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stopToken := newStopToken(s.stopLocked)
	sleepDurations := append([]time.Duration(nil), options.SleepDurations...)

	panicErr := func() (panicErr error) {
		defer func() {
			if r := recover(); r != nil {
				panicErr = fmt.Errorf("%v", r)
			}
		}()
		if options.Execution != ExecutionScheduledOnly {
			if options.Execution == ExecutionImmediateWithSleep {
				// Sleeps with the lock still held: the background
				// goroutine cannot pick up any other work while this
				// immediate attempt is in flight.
				time.Sleep(takeNextDuration(&sleepDurations))
			}
			execFn(s.iface, stopToken)
		}
		return nil
	}()

	if panicErr != nil {
		stopToken.RequestStop()
		logging.Errorf("retry: panic recovered in Schedule, stopping scheduler: %v", panicErr)
	}

	stopToken.finish()

	if panicErr == nil && !stopToken.StopRequested() {
		s.retryFunction = execFn
		s.sleepDurations = sleepDurations
		s.syncThreadLocked()
	}
	return nil
}

// IsScheduled reports whether a callback is currently scheduled for retry.
func (s *Scheduler[T]) IsScheduled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isScheduledLocked()
}

// Stop clears any scheduled callback. It will no longer run once Stop
// returns.
func (s *Scheduler[T]) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Execute runs fn against the wrapped interface under the scheduler's lock,
// with no stop token — for read-only or one-off access that doesn't affect
// the retry schedule.
func Execute[T, R any](s *Scheduler[T], fn func(T) R) R {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.iface)
}

// ExecuteWithStop runs fn against the wrapped interface under the
// scheduler's lock, handing it a StopToken it can use to cancel the
// currently scheduled retry as part of the same call.
func ExecuteWithStop[T, R any](s *Scheduler[T], fn func(T, *StopToken) R) R {
	s.mu.Lock()
	defer s.mu.Unlock()
	stopToken := newStopToken(s.stopLocked)
	defer stopToken.finish()
	return fn(s.iface, stopToken)
}

func (s *Scheduler[T]) isScheduledLocked() bool {
	return s.retryFunction != nil
}

func (s *Scheduler[T]) stopLocked() {
	if s.isScheduledLocked() {
		s.clearThreadLoopLocked()
		s.syncThreadLocked()
	}
}

func (s *Scheduler[T]) clearThreadLoopLocked() {
	s.sleepDurations = nil
	s.retryFunction = nil
}

func (s *Scheduler[T]) syncThreadLocked() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler[T]) run() {
	defer close(s.done)

	s.mu.Lock()
	defer s.mu.Unlock()

	for s.keepAlive {
		duration := takeNextDuration(&s.sleepDurations)
		if s.waitLocked(duration) {
			// Woken for synchronization (Stop/Schedule/Close), not to retry.
			continue
		}

		fn := s.retryFunction
		if fn == nil {
			continue
		}
		s.runRetryLocked(fn)
	}
}

// waitLocked releases the lock and blocks until either woken via wake or
// duration elapses (or indefinitely, if duration is zero), then
// reacquires the lock. Returns true if woken, false if it timed out.
func (s *Scheduler[T]) waitLocked(duration time.Duration) bool {
	s.mu.Unlock()
	defer s.mu.Lock()

	if duration <= 0 {
		<-s.wake
		return true
	}

	select {
	case <-s.wake:
		return true
	case <-time.After(duration):
		return false
	}
}

func (s *Scheduler[T]) runRetryLocked(fn ExecFunc[T]) {
	stopToken := newStopToken(s.clearThreadLoopLocked)

	panicErr := func() (panicErr error) {
		defer func() {
			if r := recover(); r != nil {
				panicErr = fmt.Errorf("%v", r)
			}
		}()
		fn(s.iface, stopToken)
		return nil
	}()

	stopToken.finish()

	if panicErr != nil {
		logging.Errorf("retry: panic recovered in scheduled function, stopping scheduler: %v", panicErr)
		s.clearThreadLoopLocked()
	}
}

// takeNextDuration pops and returns the front duration once more than one
// remains, otherwise returns the last (or zero, if none remain) without
// consuming it — the last duration is the steady-state interval, reused
// indefinitely.
func takeNextDuration(durations *[]time.Duration) time.Duration {
	d := *durations
	if len(d) > 1 {
		front := d[0]
		*durations = d[1:]
		return front
	}
	if len(d) == 0 {
		return 0
	}
	return d[len(d)-1]
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}
