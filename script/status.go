package script

import "github.com/wippyai/scriptref/errors"

// Status is the code a host function returns to the guest. Zero is success.
type Status int32

const (
	StatusOK Status = iota
	StatusInvalidBaseReference
	StatusGarbageCollected
	StatusMissingWorld
	StatusInvalidPath
	StatusInsufficientProvenance
	StatusCannotClaim
	StatusTypeMismatch
	StatusValueMismatch
	StatusNotFound
	StatusInvalidInput
	StatusUnsupported
	StatusInternal
)

var statusByKind = map[errors.Kind]Status{
	errors.KindInvalidBaseReference:       StatusInvalidBaseReference,
	errors.KindGarbageCollectedAllocation: StatusGarbageCollected,
	errors.KindMissingWorld:               StatusMissingWorld,
	errors.KindInvalidReflectionPath:      StatusInvalidPath,
	errors.KindInsufficientProvenance:     StatusInsufficientProvenance,
	errors.KindCannotClaimAccess:          StatusCannotClaim,
	errors.KindTypeMismatch:               StatusTypeMismatch,
	errors.KindValueMismatch:              StatusValueMismatch,
	errors.KindNotFound:                   StatusNotFound,
	errors.KindInvalidInput:               StatusInvalidInput,
	errors.KindUnsupported:                StatusUnsupported,
}

// StatusOf maps an error to its status code. Errors without a kind are
// StatusInternal.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	if s, ok := statusByKind[errors.KindOf(err)]; ok {
		return s
	}
	return StatusInternal
}

func (s Status) String() string {
	for k, v := range statusByKind {
		if v == s {
			return string(k)
		}
	}
	switch s {
	case StatusOK:
		return "ok"
	case StatusInternal:
		return "internal"
	default:
		return "unknown"
	}
}
