package testing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-drift/viewkit/pkg/core"
)

func TestCaptureSnapshot_Structure(t *testing.T) {
	tester := NewViewTesterWithT(t)
	child := tester.NewView(core.TagBehavior{Tag: "span"})
	root := tester.NewView(nil, child)
	root.SetAttrs(core.Attrs{"count": 3})
	if err := tester.Mount(root); err != nil {
		t.Fatal(err)
	}

	snap := tester.CaptureSnapshot(root)
	if snap.Views == nil {
		t.Fatal("expected view tree")
	}
	if snap.Views.State != "inDOM" || !snap.Views.Element {
		t.Errorf("root node = %+v", snap.Views)
	}
	if snap.Views.Attrs["count"] != "3" {
		t.Errorf("attrs = %v", snap.Views.Attrs)
	}
	if len(snap.Views.Children) != 1 || snap.Views.Children[0].Tag != "span" {
		t.Errorf("children = %+v", snap.Views.Children)
	}
	if !strings.Contains(snap.Markup, `data-count="3"`) {
		t.Errorf("markup = %s", snap.Markup)
	}
}

func TestSnapshot_Diff(t *testing.T) {
	tester := NewViewTesterWithT(t)
	v := tester.NewView(nil)
	if err := tester.Mount(v); err != nil {
		t.Fatal(err)
	}

	a := tester.CaptureSnapshot(v)
	b := tester.CaptureSnapshot(v)
	if diff := a.Diff(b); diff != "" {
		t.Errorf("expected no diff for identical snapshots, got:\n%s", diff)
	}

	if err := tester.Renderer().Remove(v, false); err != nil {
		t.Fatal(err)
	}
	if err := tester.Pump(); err != nil {
		t.Fatal(err)
	}
	c := tester.CaptureSnapshot(v)
	diff := a.Diff(c)
	if diff == "" {
		t.Fatal("expected diff after removal")
	}
	if !strings.Contains(diff, `+    "state": "inDOM"`) || !strings.Contains(diff, `-    "state": "preRender"`) {
		t.Errorf("diff should show the state change:\n%s", diff)
	}
}

func TestSnapshot_UpdateAndMatch(t *testing.T) {
	tester := NewViewTesterWithT(t)
	v := tester.NewView(nil)
	if err := tester.Mount(v); err != nil {
		t.Fatal(err)
	}
	snap := tester.CaptureSnapshot(v)

	path := filepath.Join(t.TempDir(), "testdata", "view.snapshot.json")
	if err := snap.UpdateFile(path); err != nil {
		t.Fatalf("UpdateFile failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("snapshot file should exist after UpdateFile")
	}

	snap.MatchesFile(t, path)
}

func TestSnapshot_MatchesFile_MissingFile(t *testing.T) {
	t.Setenv("VIEWKIT_UPDATE_SNAPSHOTS", "")
	tester := NewViewTesterWithT(t)
	snap := tester.CaptureSnapshot(nil)

	failed := false
	sub := &fatalRecorder{name: t.Name(), onFatal: func() { failed = true }}
	snap.MatchesFile(sub, "/nonexistent/path/snap.json")

	if !failed {
		t.Error("expected MatchesFile to fail for missing file")
	}
}

func TestSnapshot_MatchesFile_Mismatch(t *testing.T) {
	t.Setenv("VIEWKIT_UPDATE_SNAPSHOTS", "")
	tester := NewViewTesterWithT(t)
	v := tester.NewView(nil)
	first := tester.CaptureSnapshot(v)

	path := filepath.Join(t.TempDir(), "snap.json")
	if err := first.UpdateFile(path); err != nil {
		t.Fatal(err)
	}

	if err := tester.Mount(v); err != nil {
		t.Fatal(err)
	}
	second := tester.CaptureSnapshot(v)

	errored := false
	sub := &errorRecorder{name: t.Name(), onError: func() { errored = true }}
	second.MatchesFile(sub, path)

	if !errored {
		t.Error("expected MatchesFile to report error for mismatch")
	}
}

func TestSnapshot_UpdateMode(t *testing.T) {
	tester := NewViewTesterWithT(t)
	snap := tester.CaptureSnapshot(tester.NewView(nil))
	path := filepath.Join(t.TempDir(), "update.snapshot.json")

	t.Setenv("VIEWKIT_UPDATE_SNAPSHOTS", "1")
	snap.MatchesFile(t, path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("snapshot file should be created in update mode")
	}
}

// fatalRecorder intercepts Fatalf calls for testing MatchesFile failures.
type fatalRecorder struct {
	name    string
	onFatal func()
}

func (r *fatalRecorder) Fatalf(format string, args ...any) { r.onFatal() }
func (r *fatalRecorder) Errorf(format string, args ...any) {}
func (r *fatalRecorder) Helper()                           {}
func (r *fatalRecorder) Name() string                      { return r.name }

// errorRecorder intercepts Errorf calls for testing MatchesFile mismatches.
type errorRecorder struct {
	name    string
	onError func()
}

func (r *errorRecorder) Fatalf(format string, args ...any) {}
func (r *errorRecorder) Errorf(format string, args ...any) { r.onError() }
func (r *errorRecorder) Helper()                           {}
func (r *errorRecorder) Name() string                      { return r.name }
