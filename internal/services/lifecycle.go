package services

import (
	"fmt"
	"sync"

	"prisma-backend/internal/logger"
	"prisma-backend/internal/models"
)

// State is a step in the life of one generation request.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateRejected
	StateDispatched
	StateStreaming
	StateCompleted
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:       "idle",
	StateValidating: "validating",
	StateRejected:   "rejected",
	StateDispatched: "dispatched",
	StateStreaming:  "streaming",
	StateCompleted:  "completed",
	StateFailed:     "failed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateRejected || s == StateCompleted || s == StateFailed
}

var transitions = map[State][]State{
	StateIdle:       {StateValidating},
	StateValidating: {StateRejected, StateDispatched},
	StateDispatched: {StateStreaming, StateCompleted, StateFailed},
	StateStreaming:  {StateCompleted, StateFailed},
}

// Lifecycle tracks one request through its states and logs each move.
// Streams may be closed from another goroutine, hence the mutex.
type Lifecycle struct {
	mu    sync.Mutex
	kind  models.ArtifactKind
	state State
	log   *logger.Logger
}

func NewLifecycle(kind models.ArtifactKind, log *logger.Logger) *Lifecycle {
	if log == nil {
		log = logger.Nop()
	}
	return &Lifecycle{kind: kind, state: StateIdle, log: log.With("kind", string(kind))}
}

func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Transition moves to next, refusing moves the state machine does not allow.
func (l *Lifecycle) Transition(next State) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, allowed := range transitions[l.state] {
		if allowed == next {
			l.log.Debug("generation state", "from", l.state.String(), "to", next.String())
			l.state = next
			return nil
		}
	}
	return fmt.Errorf("illegal generation transition %s -> %s", l.state, next)
}

// reject ends validation with err and returns it.
func (l *Lifecycle) reject(err error) error {
	l.must(StateRejected)
	l.log.Info("generation rejected", "reason", err.Error())
	return err
}

// fail records a provider or output failure and returns err.
func (l *Lifecycle) fail(err error) error {
	l.must(StateFailed)
	l.log.Warn("generation failed", "error", err.Error())
	return err
}

// finishStream completes a request that is still streaming. A consumer that
// stops reading early also ends up here.
func (l *Lifecycle) finishStream() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateStreaming {
		l.log.Debug("generation state", "from", l.state.String(), "to", StateCompleted.String())
		l.state = StateCompleted
	}
}

func (l *Lifecycle) must(next State) {
	if err := l.Transition(next); err != nil {
		l.log.Error("generation state", "error", err.Error())
	}
}
