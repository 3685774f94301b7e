package domain

// AuthOutcome discriminates AuthResult.
type AuthOutcome int

const (
	// OutcomeAuthenticated means the caller proved its identity.
	OutcomeAuthenticated AuthOutcome = iota + 1
	// OutcomeRejected means the caller failed to prove its identity.
	OutcomeRejected
	// OutcomeSystemError means verification could not be completed.
	OutcomeSystemError
)

func (o AuthOutcome) String() string {
	switch o {
	case OutcomeAuthenticated:
		return "authenticated"
	case OutcomeRejected:
		return "rejected"
	case OutcomeSystemError:
		return "system_error"
	default:
		return "unknown"
	}
}

// AuthResult is the outcome of a single authentication attempt. Exactly one of
// Identity (Authenticated), Reason (Rejected) or Cause (SystemError) is meaningful.
type AuthResult struct {
	Outcome  AuthOutcome
	Identity PublicUser
	Reason   error
	Cause    error
}

// Authenticated builds a successful result.
func Authenticated(identity PublicUser) AuthResult {
	return AuthResult{Outcome: OutcomeAuthenticated, Identity: identity}
}

// Rejected builds a result for a caller that presented bad or missing proof.
func Rejected(reason error) AuthResult {
	return AuthResult{Outcome: OutcomeRejected, Reason: reason}
}

// SystemFailure builds a result for an infrastructure failure.
func SystemFailure(cause error) AuthResult {
	return AuthResult{Outcome: OutcomeSystemError, Cause: cause}
}

// OK reports whether the result is Authenticated.
func (r AuthResult) OK() bool {
	return r.Outcome == OutcomeAuthenticated
}

// Err returns the rejection reason or system cause, or nil when authenticated.
func (r AuthResult) Err() error {
	switch r.Outcome {
	case OutcomeRejected:
		return r.Reason
	case OutcomeSystemError:
		return r.Cause
	default:
		return nil
	}
}
