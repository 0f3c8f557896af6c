package domain

// LoopState is the position of the interception loop within one tick.
type LoopState string

const (
	StateIdle          LoopState = "idle"
	StateClassify      LoopState = "classify"
	StateCooldownCheck LoopState = "cooldown_check"
	StateDispatch      LoopState = "dispatch"
	StateRecordOutcome LoopState = "record_outcome"
	StateCaught        LoopState = "caught"
	StateAborted       LoopState = "aborted"
)

// IsTerminal reports whether the loop has finished.
func (s LoopState) IsTerminal() bool {
	return s == StateCaught || s == StateAborted
}
