package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutcomeStatus is the terminal status of one protocol attempt.
type OutcomeStatus string

const (
	OutcomeCaught OutcomeStatus = "caught"
	OutcomeFailed OutcomeStatus = "failed"
)

// FailureReason says which step of a protocol attempt failed.
type FailureReason string

const (
	ReasonOpen             FailureReason = "open"
	ReasonClaim            FailureReason = "claim"
	ReasonMissingEndpoints FailureReason = "missing_endpoints"
	ReasonWrite            FailureReason = "write"
	ReasonLaunch           FailureReason = "launch"
	ReasonPayloadExit      FailureReason = "payload_exit"
)

// Outcome is the result of one protocol attempt against one device.
type Outcome struct {
	AttemptID string
	Status    OutcomeStatus
	Mode      RecoveryMode
	Reason    FailureReason
	Err       error
}

// Caught builds a successful outcome for the given recovery mode.
func Caught(mode RecoveryMode) Outcome {
	return Outcome{
		AttemptID: uuid.New().String(),
		Status:    OutcomeCaught,
		Mode:      mode,
	}
}

// Failed builds a failed outcome.
func Failed(reason FailureReason, err error) Outcome {
	return Outcome{
		AttemptID: uuid.New().String(),
		Status:    OutcomeFailed,
		Reason:    reason,
		Err:       err,
	}
}

// IsCaught reports whether the device was seized.
func (o Outcome) IsCaught() bool {
	return o.Status == OutcomeCaught
}

// Attempt is a historical record of one dispatched attempt.
type Attempt struct {
	ID         string        `json:"id"`
	Device     string        `json:"device"`
	Class      string        `json:"class"`
	Status     OutcomeStatus `json:"status"`
	Reason     FailureReason `json:"reason,omitempty"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}
