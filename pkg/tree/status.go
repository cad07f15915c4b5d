package tree

// Status is the outcome of a traversal: whether any rendered edge broke a
// dependency rule. It is a lint result, not an error.
type Status int

const (
	// NoViolation means every edge seen so far is allowed.
	NoViolation Status = iota
	// Violation means at least one edge broke a rule.
	Violation
)

// StatusOf converts a violation flag to a Status.
func StatusOf(violation bool) Status {
	if violation {
		return Violation
	}
	return NoViolation
}

// Or combines two outcomes. Violation absorbs: once any part of a traversal
// reports it, every combination including that part reports it too.
func (s Status) Or(other Status) Status {
	if s == Violation || other == Violation {
		return Violation
	}
	return NoViolation
}

// Failed reports whether s is Violation.
func (s Status) Failed() bool { return s == Violation }

func (s Status) String() string {
	if s == Violation {
		return "violation"
	}
	return "ok"
}
