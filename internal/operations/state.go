package operations

import (
	"fmt"
	"sync"
)

var phaseTransitions = map[Phase][]Phase{
	PhaseIdle:            {PhaseLoading},
	PhaseLoading:         {PhaseAggregating, PhaseFailed},
	PhaseAggregating:     {PhaseRenderingCharts},
	PhaseRenderingCharts: {PhaseComposing},
	PhaseComposing:       {PhaseDone, PhaseFailed},
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to Phase) bool {
	for _, next := range phaseTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RunState tracks the phase of one run.
type RunState struct {
	mu    sync.RWMutex
	id    string
	phase Phase
}

// NewRunState creates a run in IDLE.
func NewRunState(id string) *RunState {
	return &RunState{id: id, phase: PhaseIdle}
}

// Phase returns the current phase.
func (s *RunState) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Advance moves the run to next if the transition is allowed.
func (s *RunState) Advance(next Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !CanTransition(s.phase, next) {
		return NewInvalidStateError(string(s.phase),
			fmt.Sprintf("run %s cannot move from %s to %s", s.id, s.phase, next))
	}
	s.phase = next
	return nil
}
