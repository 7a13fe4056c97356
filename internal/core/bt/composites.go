package bt

// Composite nodes: Selector, Sequence, Conditional.
// None of them remember anything between ticks; every tick scans from the
// first child again, even if a later child reported Running last time.

// selectOver ticks children until one does not fail.
func selectOver(children []Node) Result {
	for _, ch := range children {
		switch ch.Tick() {
		case Success:
			return Success
		case Running:
			return Running
		}
	}
	return Failure
}

// Selector returns the first non-Failure child result, or Failure when all
// children fail or there are none.
type Selector struct {
	block
}

// Add appends children and returns the selector for chaining.
func (s *Selector) Add(children ...Node) *Selector {
	s.append(children)
	return s
}

func (s *Selector) Tick() Result {
	return s.done(selectOver(s.children))
}

// Sequence fails on the first failing child. A Running child does not stop
// the pass: the remaining children are still ticked and the sequence
// reports Running once all of them were visited.
type Sequence struct {
	block
}

// Add appends children and returns the sequence for chaining.
func (s *Sequence) Add(children ...Node) *Sequence {
	s.append(children)
	return s
}

func (s *Sequence) Tick() Result {
	running := false
	for _, ch := range s.children {
		switch ch.Tick() {
		case Success:
		case Running:
			running = true
		default:
			return s.done(Failure)
		}
	}
	if running {
		return s.done(Running)
	}
	return s.done(Success)
}

// Conditional gates a selector behind a predicate.
type Conditional struct {
	block
	cond Predicate
}

// Add appends children and returns the conditional for chaining.
func (c *Conditional) Add(children ...Node) *Conditional {
	c.append(children)
	return c
}

// Tick evaluates the predicate exactly once. When it is false the
// conditional fails without ticking any child; otherwise it behaves as a
// Selector over its children.
func (c *Conditional) Tick() Result {
	if c.cond == nil || !c.cond() {
		return c.done(Failure)
	}
	return c.done(selectOver(c.children))
}

var (
	_ Block = (*Selector)(nil)
	_ Block = (*Sequence)(nil)
	_ Block = (*Conditional)(nil)
	_ Node  = (*Action)(nil)
)
