package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for engine operations. Every one of them aborts the call
// that produced it and reverts all writes made during that call.
var (
	// ErrUnauthorized is returned when the effective caller lacks the role an operation requires
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidState is returned when an entity's status does not permit the operation
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidAmount is returned for zero, negative or otherwise unusable amounts
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientBalance is returned when a debit exceeds the available balance
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidIdentity is returned when the zero address is supplied as an identity
	ErrInvalidIdentity = errors.New("invalid identity")

	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when trying to create an entity that already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrDuplicateReceipt is returned when a receipt was already minted for an assessment
	ErrDuplicateReceipt = errors.New("duplicate receipt")

	// ErrAlreadyPaid is returned when paying an assessment that is no longer pending
	ErrAlreadyPaid = errors.New("already paid")

	// ErrNonTransferable is returned for any attempt to move a tax receipt
	ErrNonTransferable = errors.New("non-transferable")

	// ErrNotAssigned is returned when a validator acts on a grievance assigned to someone else
	ErrNotAssigned = errors.New("not assigned")

	// ErrAlreadyVoted is returned on a second vote by the same account
	ErrAlreadyVoted = errors.New("already voted")

	// ErrExpired is returned for relayed requests past their deadline
	ErrExpired = errors.New("expired")

	// ErrNonceReused is returned when a relayed request does not carry the signer's next nonce
	ErrNonceReused = errors.New("nonce reused")

	// ErrInvalidSignature is returned when a relayed request's signature does not recover to its signer
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrUnknownModule is returned when dispatching to an unregistered module id
	ErrUnknownModule = errors.New("unknown module")

	// ErrOutOfOrder is returned when completing a milestone before its predecessors
	ErrOutOfOrder = errors.New("out of order")

	// ErrBudgetExceeded is returned when an allocation or disbursement would overrun a budget
	ErrBudgetExceeded = errors.New("budget exceeded")

	// ErrRoleConflict is returned when granting a role that conflicts with one already held
	ErrRoleConflict = errors.New("role conflict")

	// ErrMonthlyLimitReached is returned when a citizen exhausted this month's grievance quota
	ErrMonthlyLimitReached = errors.New("monthly limit reached")

	// ErrInvalidInput is returned for malformed arguments (empty references, bad calldata)
	ErrInvalidInput = errors.New("invalid input")
)

// UnknownMethodErr is returned when calldata or a CLI method name matches
// nothing in a module's ABI.
type UnknownMethodErr struct {
	Module      string
	Method      string
	Suggestions []string
}

func (e UnknownMethodErr) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("module %s has no method %q", e.Module, e.Method)
	}
	return fmt.Sprintf("module %s has no method %q - did you mean: %s",
		e.Module, e.Method, strings.Join(e.Suggestions, ", "))
}

// Is lets errors.Is(err, ErrInvalidInput) match unknown methods.
func (e UnknownMethodErr) Is(target error) bool {
	return target == ErrInvalidInput
}
