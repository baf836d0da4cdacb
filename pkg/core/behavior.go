package core

// Attrs are the attributes handed to a view by its parent or caller.
type Attrs map[string]any

// Event names a lifecycle notification delivered to a view.
type Event string

const (
	EventWillInsertElement  Event = "willInsertElement"
	EventDidInsertElement   Event = "didInsertElement"
	EventDidUpdate          Event = "didUpdate"
	EventDidRender          Event = "didRender"
	EventWillDestroyElement Event = "willDestroyElement"
	EventWillClearRender    Event = "willClearRender"
)

// Behavior is the user-supplied part of a view. Only TagName is required;
// every other hook is an optional capability checked with a type assertion.
type Behavior interface {
	// TagName is the element tag the view renders as.
	TagName() string
}

// Triggerer receives lifecycle notifications.
type Triggerer interface {
	Trigger(event Event)
}

// AttrsReceiver is called before new attrs are stored on the view.
type AttrsReceiver interface {
	WillReceiveAttrs(attrs Attrs)
}

// UpdateWatcher is called before a view is re-rendered with attrs.
type UpdateWatcher interface {
	WillUpdate(attrs Attrs)
}

// RenderWatcher is called before every render of the view.
type RenderWatcher interface {
	WillRender()
}

// ElementDestroyer runs before any willDestroyElement notification.
type ElementDestroyer interface {
	BeforeDestroyElement()
}

// Instrumented views get a timing span around element creation when
// instrumentation subscribers are registered.
type Instrumented interface {
	InstrumentName() string
	InstrumentDetails(details map[string]any)
}

// Templated views supply a layout and a template to the render pipeline.
type Templated interface {
	Layout() Template
	Template() Template
}

// TagBehavior is the minimal Behavior: a tag name and nothing else.
type TagBehavior struct {
	Tag string
}

// TagName returns the configured tag, or "div".
func (b TagBehavior) TagName() string {
	if b.Tag == "" {
		return "div"
	}
	return b.Tag
}
