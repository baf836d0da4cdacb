package testing

import (
	"fmt"
	"reflect"

	"github.com/go-drift/viewkit/pkg/core"
)

// Finder locates views in a view tree.
type Finder interface {
	// Evaluate returns all matching views under root (depth-first pre-order).
	Evaluate(root *core.View) []*core.View
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	views  []*core.View
	finder Finder
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() *core.View {
	if len(r.views) == 0 {
		panic(fmt.Sprintf("Finder found no views: %s", r.description()))
	}
	return r.views[0]
}

// FirstOrNil returns the first match, or nil if none.
func (r FinderResult) FirstOrNil() *core.View {
	if len(r.views) == 0 {
		return nil
	}
	return r.views[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) *core.View {
	if index < 0 || index >= len(r.views) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.views), r.description()))
	}
	return r.views[index]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []*core.View {
	return r.views
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.views)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.views) > 0
}

func (r FinderResult) description() string {
	if r.finder == nil {
		return "unknown"
	}
	return r.finder.Description()
}

type idFinder struct {
	id core.ID
}

func (f *idFinder) Evaluate(root *core.View) []*core.View {
	return collectMatches(root, func(v *core.View) bool { return v.ID() == f.id })
}

func (f *idFinder) Description() string {
	return fmt.Sprintf("ByID(%s)", f.id)
}

// ByID returns a finder that matches the view with id.
func ByID(id core.ID) Finder {
	return &idFinder{id: id}
}

type tagFinder struct {
	tag string
}

func (f *tagFinder) Evaluate(root *core.View) []*core.View {
	return collectMatches(root, func(v *core.View) bool { return v.Behavior().TagName() == f.tag })
}

func (f *tagFinder) Description() string {
	return fmt.Sprintf("ByTag(%q)", f.tag)
}

// ByTag returns a finder that matches views rendering as tag.
func ByTag(tag string) Finder {
	return &tagFinder{tag: tag}
}

type stateFinder struct {
	state core.State
}

func (f *stateFinder) Evaluate(root *core.View) []*core.View {
	return collectMatches(root, func(v *core.View) bool { return v.State() == f.state })
}

func (f *stateFinder) Description() string {
	return fmt.Sprintf("ByState(%s)", f.state)
}

// ByState returns a finder that matches views in state.
func ByState(state core.State) Finder {
	return &stateFinder{state: state}
}

type typeFinder struct {
	behaviorType reflect.Type
}

func (f *typeFinder) Evaluate(root *core.View) []*core.View {
	return collectMatches(root, func(v *core.View) bool {
		return reflect.TypeOf(v.Behavior()) == f.behaviorType
	})
}

func (f *typeFinder) Description() string {
	return fmt.Sprintf("ByType(%s)", f.behaviorType)
}

// ByType returns a finder that matches views whose behavior is type T.
func ByType[T core.Behavior]() Finder {
	return &typeFinder{behaviorType: reflect.TypeFor[T]()}
}

type predicateFinder struct {
	fn   func(*core.View) bool
	desc string
}

func (f *predicateFinder) Evaluate(root *core.View) []*core.View {
	return collectMatches(root, f.fn)
}

func (f *predicateFinder) Description() string {
	return f.desc
}

// ByPredicate returns a finder that matches views satisfying fn.
func ByPredicate(fn func(*core.View) bool) Finder {
	return &predicateFinder{fn: fn, desc: "ByPredicate(...)"}
}

// descendantFinder finds views matching 'matching' below views matching 'of'.
type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(root *core.View) []*core.View {
	var results []*core.View
	seen := make(map[*core.View]bool)
	for _, ancestor := range f.of.Evaluate(root) {
		for _, child := range ancestor.Children() {
			for _, match := range f.matching.Evaluate(child) {
				if !seen[match] {
					seen[match] = true
					results = append(results, match)
				}
			}
		}
	}
	return results
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant returns a finder that matches views satisfying 'matching'
// that are descendants of views matching 'of'.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}

func collectMatches(root *core.View, predicate func(*core.View) bool) []*core.View {
	var results []*core.View
	root.Walk(func(v *core.View) bool {
		if predicate(v) {
			results = append(results, v)
		}
		return true
	})
	return results
}
