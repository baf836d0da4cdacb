// Package testing provides a harness for exercising views through the
// renderer without a real document host.
//
// # Quick Start
//
// Create a tester, mount a view, and make assertions:
//
//	func TestMyView(t *testing.T) {
//	    tester := viewtest.NewViewTesterWithT(t)
//	    list := tester.NewView(core.TagBehavior{Tag: "ul"},
//	        tester.NewView(core.TagBehavior{Tag: "li"}))
//
//	    if err := tester.Mount(list); err != nil {
//	        t.Fatal(err)
//	    }
//
//	    // Find views
//	    item := tester.Find(viewtest.ByTag("li")).First()
//
//	    // Drive the lifecycle
//	    tester.Renderer().Remove(item, false)
//	    tester.Pump()
//
//	    // Assert notifications
//	    if !tester.Saw(item, core.EventWillDestroyElement) {
//	        t.Error("expected willDestroyElement")
//	    }
//	}
//
// # Snapshot Testing
//
// Capture and compare view tree snapshots:
//
//	snapshot := tester.CaptureSnapshot(list)
//	snapshot.MatchesFile(t, "testdata/list.snapshot.json")
//
// Update snapshots with:
//
//	VIEWKIT_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Instrumentation
//
// The tester subscribes a span recorder to its own instrumenter and drives
// span timings from a fake clock:
//
//	tester.Clock().Advance(5 * time.Millisecond)
//	spans := tester.Spans()
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import viewtest "github.com/go-drift/viewkit/pkg/testing"
package testing
