package scenario

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/viewkit/pkg/core"
	"github.com/go-drift/viewkit/pkg/errors"
	"github.com/go-drift/viewkit/pkg/renderer"
)

const basic = `
name: basic
markup: <div id="app"></div>
views:
  - name: root
    template: main
    children:
      - name: a
      - name: b
        tag: span
steps:
  - op: append
    view: root
    into: app
  - op: flush
`

func mustParse(t *testing.T, src string) *Scenario {
	t.Helper()
	s, err := Parse([]byte(src))
	require.NoError(t, err)
	return s
}

func run(t *testing.T, src string, opts ...Option) (*Session, *Report, error) {
	t.Helper()
	sess, err := NewSession(mustParse(t, src), opts...)
	require.NoError(t, err)
	rep, err := sess.Run(context.Background())
	return sess, rep, err
}

func TestParse(t *testing.T) {
	s := mustParse(t, basic)

	assert.Equal(t, "basic", s.Name)
	require.Len(t, s.Views, 1)
	assert.Equal(t, "main", s.Views[0].Template)
	require.Len(t, s.Views[0].Children, 2)
	assert.Equal(t, "span", s.Views[0].Children[1].Tag)
	assert.Equal(t, []Step{{Op: OpAppend, View: "root", Into: "app"}, {Op: OpFlush}}, s.Steps)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		invalid bool
	}{
		{"empty", "", true},
		{"unknown field", "views: []\nsteps: []\nbogus: 1\n", false},
		{"unnamed view", "views:\n  - tag: p\n", true},
		{"duplicate view", "views:\n  - name: a\n    children:\n      - name: a\n", true},
		{"unknown op", "views:\n  - name: a\nsteps:\n  - op: explode\n    view: a\n", true},
		{"missing view", "views:\n  - name: a\nsteps:\n  - op: remove\n", true},
		{"unknown view", "views:\n  - name: a\nsteps:\n  - op: remove\n    view: b\n", true},
		{"add-child without child", "views:\n  - name: a\nsteps:\n  - op: add-child\n    view: a\n", true},
		{"add-child duplicate", "views:\n  - name: a\nsteps:\n  - op: add-child\n    view: a\n    child:\n      name: a\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			require.Error(t, err)

			var ve *errors.ViewError
			require.True(t, stderrors.As(err, &ve), "want *errors.ViewError, got %T", err)
			assert.Equal(t, errors.KindConfig, ve.Kind)
			assert.Equal(t, tt.invalid, stderrors.Is(err, ErrInvalid))
		})
	}
}

func TestParse_AddedChildMayBeReferenced(t *testing.T) {
	s := mustParse(t, `
views:
  - name: root
steps:
  - op: add-child
    view: root
    child:
      name: late
  - op: remove
    view: late
`)
	assert.Len(t, s.Steps, 2)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("views:\n  - name: a\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSession_Append(t *testing.T) {
	sess, rep, err := run(t, basic)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"root:willInsertElement", "a:willInsertElement", "b:willInsertElement",
		"a:didInsertElement", "a:didRender",
		"b:didInsertElement", "b:didRender",
		"root:didInsertElement", "root:didRender",
	}, rep.Events)
	assert.Equal(t, `<div id="app"><div id="view-3" data-template="main"><div id="view-1"></div><span id="view-2"></span></div></div>`, rep.Markup)
	for _, name := range []string{"root", "a", "b"} {
		assert.Equal(t, core.InDOM, sess.View(name).State(), name)
	}

	var spans []string
	for _, sp := range rep.Spans {
		spans = append(spans, sp.Name)
	}
	assert.Equal(t, []string{"render.root", "render.a", "render.b"}, spans)
}

func TestSession_AppendToUnknownContainer(t *testing.T) {
	_, _, err := run(t, `
views:
  - name: root
steps:
  - op: append
    view: root
    into: nowhere
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1 (append root)")
}

func TestSession_Replace(t *testing.T) {
	_, rep, err := run(t, `
markup: <section id="host"><p>old</p></section>
views:
  - name: root
    attrs:
      count: 2
steps:
  - op: replace
    view: root
    into: host
`)
	require.NoError(t, err)
	assert.Equal(t, `<section id="host"><div id="view-1" data-count="2"></div></section>`, rep.Markup)
}

func TestSession_Cancel(t *testing.T) {
	sess, rep, err := run(t, `
markup: <div id="app"></div>
views:
  - name: root
steps:
  - op: append
    view: root
    into: app
  - op: cancel
    view: root
`)
	require.NoError(t, err)
	assert.Empty(t, rep.Events)
	assert.Equal(t, `<div id="app"></div>`, rep.Markup)
	assert.Equal(t, core.PreRender, sess.View("root").State())
}

func TestSession_CancelWithoutPendingInsertion(t *testing.T) {
	_, _, err := run(t, `
views:
  - name: root
steps:
  - op: cancel
    view: root
`)
	assert.ErrorIs(t, err, ErrNothingToCancel)
}

func TestSession_RevalidateWithNewChild(t *testing.T) {
	sess, rep, err := run(t, `
views:
  - name: root
steps:
  - op: append
    view: root
  - op: flush
  - op: add-child
    view: root
    child:
      name: late
      tag: em
  - op: update-attrs
    view: root
    attrs:
      title: hello
  - op: revalidate
    view: root
`)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"root:willInsertElement", "root:didInsertElement", "root:didRender",
		"late:willInsertElement", "late:didInsertElement", "late:didRender",
		"root:didUpdate", "root:didRender",
	}, rep.Events)
	assert.Equal(t, `<div id="view-1" data-title="hello"><em id="view-2"></em></div>`, rep.Markup)
	assert.Equal(t, core.InDOM, sess.View("late").State())
}

func TestSession_RemoveThenReinsert(t *testing.T) {
	sess, rep, err := run(t, `
views:
  - name: root
    children:
      - name: child
steps:
  - op: append
    view: root
  - op: flush
  - op: remove
    view: root
  - op: remove
    view: root
  - op: flush
  - op: append
    view: root
`)
	require.NoError(t, err)

	require.Len(t, rep.Events, 20)
	assert.Equal(t, []string{
		"child:willInsertElement", "child:didInsertElement", "child:didRender",
	}, filter(rep.Events[14:], "child"))
	assert.Equal(t, 2, count(rep.Events, "root:willDestroyElement"))
	assert.Equal(t, core.InDOM, sess.View("root").State())
	assert.Equal(t, core.InDOM, sess.View("child").State())
}

func TestSession_Destroy(t *testing.T) {
	sess, rep, err := run(t, `
views:
  - name: root
    children:
      - name: child
steps:
  - op: append
    view: root
  - op: flush
  - op: destroy
    view: root
`)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"root:willDestroyElement", "root:willClearRender",
		"child:willDestroyElement", "child:willClearRender",
	}, rep.Events[6:])
	assert.Empty(t, rep.Markup)
	assert.Zero(t, sess.Registry().Len())
	assert.True(t, sess.View("root").IsTerminal())
}

func TestSession_CreateElement(t *testing.T) {
	sess, rep, err := run(t, `
views:
  - name: root
steps:
  - op: create
    view: root
`)
	require.NoError(t, err)
	assert.Equal(t, []string{"root:willInsertElement"}, rep.Events)
	assert.Equal(t, core.HasElement, sess.View("root").State())
	assert.Empty(t, rep.Markup)
}

func TestSession_RunTwice(t *testing.T) {
	sess, err := NewSession(mustParse(t, basic))
	require.NoError(t, err)
	_, err = sess.Run(context.Background())
	require.NoError(t, err)

	_, err = sess.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRun)
}

func TestSession_CanceledContext(t *testing.T) {
	sess, err := NewSession(mustParse(t, basic))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := sess.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, rep)
	assert.Empty(t, rep.Events)
}

func TestSession_ObserverAndLock(t *testing.T) {
	var mu sync.Mutex
	var seen []core.Event
	_, _, err := run(t, basic,
		WithLock(&mu),
		WithObserver(func(n renderer.Notification) {
			assert.False(t, mu.TryLock(), "observers run while the step lock is held")
			seen = append(seen, n.Event)
		}),
	)
	require.NoError(t, err)
	assert.Len(t, seen, 9)
}

func TestReport_Verify(t *testing.T) {
	rep := &Report{Events: []string{"a:didRender", "b:didRender"}}

	assert.NoError(t, rep.Verify(nil))
	assert.NoError(t, rep.Verify([]string{"a:didRender", "b:didRender"}))

	err := rep.Verify([]string{"a:didRender"})
	require.ErrorIs(t, err, ErrUnexpectedEvents)
	assert.Contains(t, err.Error(), `2: want "", got "b:didRender"`)
}

func TestReport_WriteTo(t *testing.T) {
	_, rep, err := run(t, basic)
	require.NoError(t, err)

	var sb strings.Builder
	_, err = rep.WriteTo(&sb)
	require.NoError(t, err)
	out := sb.String()
	assert.Contains(t, out, "scenario: basic")
	assert.Contains(t, out, "events (9):")
	assert.Contains(t, out, "  1  root:willInsertElement")
	assert.Contains(t, out, "span render.root")
}

func filter(events []string, name string) []string {
	var out []string
	for _, ev := range events {
		if strings.HasPrefix(ev, name+":") {
			out = append(out, ev)
		}
	}
	return out
}

func count(events []string, want string) int {
	n := 0
	for _, ev := range events {
		if ev == want {
			n++
		}
	}
	return n
}
