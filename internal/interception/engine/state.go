package engine

import (
	"github.com/vietddude/pacman/internal/core/domain"
)

// ValidTransitions defines allowed loop state transitions.
// Key is the current state, value is the list of valid next states.
var ValidTransitions = map[domain.LoopState][]domain.LoopState{
	domain.StateIdle: {domain.StateClassify, domain.StateAborted},
	domain.StateClassify: {
		domain.StateCooldownCheck,
		domain.StateIdle,
		domain.StateAborted,
	},
	domain.StateCooldownCheck: {
		domain.StateDispatch,
		domain.StateClassify,
		domain.StateIdle,
		domain.StateAborted,
	},
	domain.StateDispatch: {domain.StateRecordOutcome, domain.StateAborted},
	domain.StateRecordOutcome: {
		domain.StateClassify,
		domain.StateIdle,
		domain.StateCaught,
		domain.StateAborted,
	},
}

// CanTransition checks if a transition from one state to another is valid.
func CanTransition(from, to domain.LoopState) bool {
	validTargets, ok := ValidTransitions[from]
	if !ok {
		return false
	}

	for _, target := range validTargets {
		if target == to {
			return true
		}
	}
	return false
}

// StateDescription returns a human-readable description of a state.
func StateDescription(s domain.LoopState) string {
	switch s {
	case domain.StateIdle:
		return "Idle - waiting for the next bus snapshot"
	case domain.StateClassify:
		return "Classifying - matching a device against known bootloaders"
	case domain.StateCooldownCheck:
		return "Cooldown check - device recently failed"
	case domain.StateDispatch:
		return "Dispatching - protocol attempt in progress"
	case domain.StateRecordOutcome:
		return "Recording outcome"
	case domain.StateCaught:
		return "Caught - device handed to the rescue procedure"
	case domain.StateAborted:
		return "Aborted - interrupted or retry ceiling reached"
	default:
		return "Unknown state"
	}
}
