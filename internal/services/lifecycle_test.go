package services

import (
	"testing"

	"prisma-backend/internal/models"
)

func TestLifecycle_Transitions(t *testing.T) {
	tests := []struct {
		name  string
		path  []State
		valid bool
	}{
		{"rejected", []State{StateValidating, StateRejected}, true},
		{"structured", []State{StateValidating, StateDispatched, StateCompleted}, true},
		{"streamed", []State{StateValidating, StateDispatched, StateStreaming, StateCompleted}, true},
		{"stream failure", []State{StateValidating, StateDispatched, StateStreaming, StateFailed}, true},
		{"skip validation", []State{StateDispatched}, false},
		{"leave terminal", []State{StateValidating, StateRejected, StateDispatched}, false},
		{"complete twice", []State{StateValidating, StateDispatched, StateCompleted, StateCompleted}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lc := NewLifecycle(models.KindSummary, nil)
			var err error
			for _, s := range tc.path {
				if err = lc.Transition(s); err != nil {
					break
				}
			}
			if tc.valid && err != nil {
				t.Errorf("Expected valid path, got %v", err)
			}
			if !tc.valid && err == nil {
				t.Error("Expected illegal transition error")
			}
		})
	}
}

func TestLifecycle_FinishStream(t *testing.T) {
	lc := NewLifecycle(models.KindEssay, nil)
	lc.Transition(StateValidating)
	lc.Transition(StateDispatched)
	lc.Transition(StateStreaming)

	lc.finishStream()
	lc.finishStream()
	if lc.State() != StateCompleted || !lc.State().Terminal() {
		t.Errorf("Expected completed, got %s", lc.State())
	}
}
