package domain

import apperrors "github.com/harlowe/wholesail/internal/platform/errors"

// Action is one administrative operation against the approval state machine.
type Action string

const (
	// ActionApprove grants price visibility.
	ActionApprove Action = "APPROVE"
	// ActionReject denies admission with an operator-supplied reason.
	ActionReject Action = "REJECT"
	// ActionReset returns a member to the PENDING state for recovery.
	ActionReset Action = "RESET_TO_PENDING"
)

// transitions is the explicit table of legal (current state, action) pairs.
//
// Every action is legal from every state by policy: approve and reset act as
// idempotent corrective operations, so re-applying a decision is a no-op with
// the same observable outcome rather than an error. The table exists so the
// policy is stated in one place and tightening it later is a data change.
var transitions = map[Status]map[Action]Status{
	StatusPending: {
		ActionApprove: StatusApproved,
		ActionReject:  StatusRejected,
		ActionReset:   StatusPending,
	},
	StatusApproved: {
		ActionApprove: StatusApproved,
		ActionReject:  StatusRejected,
		ActionReset:   StatusPending,
	},
	StatusRejected: {
		ActionApprove: StatusApproved,
		ActionReject:  StatusRejected,
		ActionReset:   StatusPending,
	},
}

// NextStatus resolves the target state for an action from the current state.
func NextStatus(current Status, action Action) (Status, error) {
	byAction, ok := transitions[current]
	if !ok {
		return "", apperrors.WithMetadata(apperrors.CodeMemberStatusInvalid, "unknown approval status", map[string]string{"status": string(current)})
	}
	next, ok := byAction[action]
	if !ok {
		return "", apperrors.WithMetadata(apperrors.CodeMemberStatusInvalid, "unknown approval action", map[string]string{"action": string(action)})
	}
	return next, nil
}

// TargetStatus resolves the state an action lands in regardless of origin.
//
// The current policy table maps every origin to the same target per action, so
// store mutations can run as single conditional updates without a prior read.
func TargetStatus(action Action) (Status, error) {
	return NextStatus(StatusPending, action)
}
