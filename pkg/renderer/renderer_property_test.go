//go:build property
// +build property

package renderer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/go-drift/viewkit/pkg/core"
)

// TestSchedulingProperties checks that repeated scheduling collapses.
func TestSchedulingProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("appendTo before flush renders once", prop.ForAll(
		func(calls int) bool {
			f := newFixture(t)
			a := f.view("A")
			for range calls {
				if err := f.r.AppendTo(a, f.doc.Body()); err != nil {
					return false
				}
			}
			if err := f.loop.Flush(); err != nil {
				return false
			}
			return len(f.log.only("willRender")) == 1 &&
				len(f.log.only("didInsertElement")) == 1 &&
				a.State() == core.InDOM
		},
		gen.IntRange(1, 8),
	))

	properties.Property("remove before flush destroys the element once", prop.ForAll(
		func(calls int, destroy bool) bool {
			f := newFixture(t)
			a := f.view("A")
			if err := f.r.AppendTo(a, f.doc.Body()); err != nil {
				return false
			}
			if err := f.loop.Flush(); err != nil {
				return false
			}
			f.logs.Reset()
			for range calls {
				if err := f.r.Remove(a, destroy); err != nil {
					return false
				}
			}
			if err := f.loop.Flush(); err != nil {
				return false
			}
			want := core.PreRender
			if destroy {
				want = core.Destroying
			}
			return len(f.destroyed(t)) == 1 && a.State() == want && a.Element() == nil
		},
		gen.IntRange(1, 8),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// TestDispatchProperties checks hook ordering over random trees.
func TestDispatchProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("each hook is followed by didRender for the same view", prop.ForAll(
		func(children, revalidations int) bool {
			f := newFixture(t)
			var kids []*core.View
			for i := range children {
				kids = append(kids, f.view(fmt.Sprintf("c%d", i)))
			}
			root := f.view("root", kids...)
			if err := f.r.AppendTo(root, f.doc.Body()); err != nil {
				return false
			}
			if err := f.loop.Flush(); err != nil {
				return false
			}
			for range revalidations {
				if err := f.r.RevalidateTopLevelView(root); err != nil {
					return false
				}
			}

			dispatched := f.log.only("didInsertElement", "didUpdate", "didRender")
			if len(dispatched)%2 != 0 {
				return false
			}
			for i := 0; i < len(dispatched); i += 2 {
				name, _, _ := strings.Cut(dispatched[i], ":")
				if dispatched[i+1] != name+":didRender" {
					return false
				}
			}
			perPass := 2 * (children + 1)
			return len(dispatched) == perPass*(1+revalidations)
		},
		gen.IntRange(0, 6),
		gen.IntRange(0, 3),
	))

	properties.Property("rendered set is empty after every pass", prop.ForAll(
		func(children, revalidations int) bool {
			f := newFixture(t)
			var kids []*core.View
			for i := range children {
				kids = append(kids, f.view(fmt.Sprintf("c%d", i)))
			}
			root := f.view("root", kids...)
			if err := f.r.AppendTo(root, f.doc.Body()); err != nil {
				return false
			}
			if err := f.loop.Flush(); err != nil {
				return false
			}
			if root.Env().RenderedCount() != 0 {
				return false
			}
			for range revalidations {
				if err := f.r.RevalidateTopLevelView(root); err != nil {
					return false
				}
				if root.Env().RenderedCount() != 0 || root.Env().PendingHooks() != 0 {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 6),
		gen.IntRange(1, 3),
	))

	properties.TestingRun(t)
}
