package bt

// NewSelector returns a Selector over the given children.
func NewSelector(children ...Node) *Selector {
	return new(Selector).Add(children...)
}

// NewSequence returns a Sequence over the given children.
func NewSequence(children ...Node) *Sequence {
	return new(Sequence).Add(children...)
}

// If returns a Conditional bound to cond.
func If(cond Predicate, children ...Node) *Conditional {
	return (&Conditional{cond: cond}).Add(children...)
}

// NewAction returns an Action bound to fn.
func NewAction(fn ActionFunc) *Action {
	return &Action{fn: fn}
}

// Succeed, Fail and Run are constant callables, handy for placeholders.
func Succeed() Result { return Success }
func Fail() Result    { return Failure }
func Run() Result     { return Running }
