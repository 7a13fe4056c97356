package bt

// Result is the outcome of a single node tick.
// Failure is an ordinary value, not an error condition.
type Result int

const (
	// Success means the node's goal or check was satisfied this tick.
	Success Result = iota
	// Failure means the node declined or could not proceed.
	Failure
	// Running means a multi-tick operation is in progress and the same node
	// has to be ticked again on the next interval.
	Running
)

// Valid reports whether r is one of Success, Failure or Running.
func (r Result) Valid() bool {
	switch r {
	case Success, Failure, Running:
		return true
	default:
		return false
	}
}

func (r Result) String() string {
	switch r {
	case Success:
		return "Success"
	case Failure:
		return "Failure"
	case Running:
		return "Running"
	default:
		return "Invalid"
	}
}

// sanitize maps anything outside the three results to Failure.
func sanitize(r Result) Result {
	if r.Valid() {
		return r
	}
	return Failure
}
