package bt

// Node is a single evaluation unit of a behavior tree.
type Node interface {
	// Tick evaluates the node once and returns its Result.
	Tick() Result
	// State returns the Result of the most recent Tick. It is kept for
	// introspection only and never consulted by evaluation.
	State() Result
}

// Block is a composite node owning an ordered list of children.
type Block interface {
	Node
	// Children returns the children in tick order.
	Children() []Node
	// Len returns the number of children.
	Len() int
}

// block carries the state and children shared by all composites.
type block struct {
	state    Result
	children []Node
}

func (b *block) State() Result { return b.state }

func (b *block) Children() []Node {
	out := make([]Node, len(b.children))
	copy(out, b.children)
	return out
}

func (b *block) Len() int { return len(b.children) }

func (b *block) append(nodes []Node) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		b.children = append(b.children, n)
	}
}

func (b *block) done(r Result) Result {
	b.state = r
	return r
}

// ActionFunc is the callable bound to an Action. It must not block and may
// freely read or mutate host state between calls.
type ActionFunc func() Result

// Predicate is the check bound to a Conditional.
type Predicate func() bool

// Action is a leaf node forwarding the result of its callable.
type Action struct {
	state Result
	fn    ActionFunc
}

func (a *Action) State() Result { return a.state }

// Tick invokes the callable once. Results outside Success, Failure and
// Running, as well as a nil callable, are reported as Failure.
func (a *Action) Tick() Result {
	r := Failure
	if a.fn != nil {
		r = sanitize(a.fn())
	}
	a.state = r
	return r
}
