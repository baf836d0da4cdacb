package renderer

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-drift/viewkit/pkg/core"
	"github.com/go-drift/viewkit/pkg/dom"
	"github.com/go-drift/viewkit/pkg/instrument"
	"github.com/go-drift/viewkit/pkg/scheduler"
	"github.com/go-drift/viewkit/pkg/template"
)

// eventLog collects "name:event" entries from probes.
type eventLog struct {
	entries []string
}

func (l *eventLog) add(entry string) {
	l.entries = append(l.entries, entry)
}

func (l *eventLog) reset() {
	l.entries = nil
}

// only returns the entries ending in one of events, in order.
func (l *eventLog) only(events ...string) []string {
	var out []string
	for _, e := range l.entries {
		for _, ev := range events {
			if strings.HasSuffix(e, ":"+ev) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// probe is a behavior implementing every optional hook and logging each call.
type probe struct {
	core.TagBehavior
	name string
	log  *eventLog

	onWillRender func()
}

func (p *probe) Trigger(event core.Event) {
	p.log.add(p.name + ":" + string(event))
}

func (p *probe) WillReceiveAttrs(core.Attrs) {
	p.log.add(p.name + ":willReceiveAttrs")
}

func (p *probe) WillUpdate(core.Attrs) {
	p.log.add(p.name + ":willUpdate")
}

func (p *probe) WillRender() {
	p.log.add(p.name + ":willRender")
	if p.onWillRender != nil {
		p.onWillRender()
	}
}

func (p *probe) BeforeDestroyElement() {
	p.log.add(p.name + ":beforeDestroyElement")
}

func (p *probe) InstrumentName() string {
	return p.name
}

func (p *probe) InstrumentDetails(details map[string]any) {
	details["name"] = p.name
}

type fixture struct {
	reg   *core.Registry
	doc   *dom.Document
	loop  *scheduler.RunLoop
	pipe  *template.Pipeline
	instr *instrument.Instrumenter
	r     *Renderer
	log   *eventLog
	logs  *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		reg:   core.NewRegistry(),
		doc:   dom.NewDocument(),
		loop:  scheduler.NewRunLoop(),
		instr: instrument.New(),
		log:   &eventLog{},
		logs:  &bytes.Buffer{},
	}
	f.pipe = template.NewPipeline(f.doc)
	logger := slog.New(slog.NewJSONHandler(f.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f.r = New(f.doc, f.pipe, f.loop, WithLogger(logger), WithInstrumenter(f.instr))
	f.pipe.SetHooks(f.r)
	return f
}

func (f *fixture) view(name string, children ...*core.View) *core.View {
	return f.reg.NewView(&probe{name: name, log: f.log}, children...)
}

func (f *fixture) probe(v *core.View) *probe {
	return v.Behavior().(*probe)
}

func (f *fixture) flush(t *testing.T) {
	t.Helper()
	require.NoError(t, f.loop.Flush())
}

func (f *fixture) insert(t *testing.T, v *core.View) {
	t.Helper()
	require.NoError(t, f.r.AppendTo(v, f.doc.Body()))
	f.flush(t)
	require.Equal(t, core.InDOM, v.State())
}

// destroyed returns the view ids from "element destroyed" log records.
func (f *fixture) destroyed(t *testing.T) []string {
	t.Helper()
	var ids []string
	for _, line := range bytes.Split(f.logs.Bytes(), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal(line, &rec))
		if rec["msg"] == "element destroyed" {
			ids = append(ids, rec["view"].(string))
		}
	}
	return ids
}
