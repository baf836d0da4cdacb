package core

// State is the lifecycle state of a View.
type State int

const (
	// PreRender is the initial state. A view returns here after its element
	// is removed without a full teardown.
	PreRender State = iota
	// HasElement means the view's element was created but not inserted.
	HasElement
	// InDOM means the view's element is inserted into the document.
	InDOM
	// Destroying means teardown of the view's element has begun.
	Destroying
)

func (s State) String() string {
	switch s {
	case PreRender:
		return "preRender"
	case HasElement:
		return "hasElement"
	case InDOM:
		return "inDOM"
	case Destroying:
		return "destroying"
	default:
		return "unknown"
	}
}

// ParseState returns the State named by s.
func ParseState(s string) (State, bool) {
	switch s {
	case "preRender":
		return PreRender, true
	case "hasElement":
		return HasElement, true
	case "inDOM":
		return InDOM, true
	case "destroying":
		return Destroying, true
	}
	return PreRender, false
}

// canTransition reports whether the state machine allows from -> to.
// Every state may enter Destroying, preRender included, since a removed
// subtree can hold children that never rendered. terminal views never leave
// Destroying.
func canTransition(from, to State, terminal bool) bool {
	switch to {
	case Destroying:
		return true
	case PreRender:
		return from != Destroying || !terminal
	case HasElement:
		return from == PreRender || from == HasElement
	case InDOM:
		return from == HasElement
	}
	return false
}
