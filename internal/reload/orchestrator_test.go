package reload

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/mattjoyce/islet/internal/config"
	"github.com/mattjoyce/islet/internal/events"
	"github.com/mattjoyce/islet/internal/layout"
	"github.com/mattjoyce/islet/internal/log"
	"github.com/mattjoyce/islet/internal/metrics"
	"github.com/mattjoyce/islet/internal/registry"
	"github.com/mattjoyce/islet/pkg/abi"
	"github.com/mattjoyce/islet/pkg/abi/mocks"
	"github.com/mattjoyce/islet/pkg/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepLog struct{ steps []string }

func (s *stepLog) add(step string) { s.steps = append(s.steps, step) }

type recordingLayout struct {
	*layout.Simple
	log *stepLog
}

func (l *recordingLayout) ListActivities() []abi.ActivityID {
	l.log.add("general-style")
	return l.Simple.ListActivities()
}

func (l *recordingLayout) ParseConfig(blob string) error {
	l.log.add("layout")
	return l.Simple.ParseConfig(blob)
}

type fakeStyle struct {
	log *stepLog
	err error
}

func (f *fakeStyle) Reload() error {
	if f.log != nil {
		f.log.add("style")
	}
	return f.err
}

type recorder struct {
	outcomes []string
}

func (r *recorder) ObserveReload(outcome string, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}

const validConfig = `
loaded_modules: all
module_config:
  clock:
    format: "15:04"
layout_configs:
  simple:
    orientation: vertical
general_style_config:
  minimal_height: 48
  blur_radius: 4
`

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

type fixture struct {
	path   string
	store  *config.Store
	reg    *registry.Registry
	layout *layout.Simple
	style  *fakeStyle
	rec    *recorder
	hub    *events.Hub
	orch   *Orchestrator
	log    *stepLog
}

func newFixture(t *testing.T, modules map[string]abi.Module) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	writeConfig(t, path, validConfig)

	f := &fixture{
		path:   path,
		store:  config.NewStore(path),
		reg:    registry.New(log.Discard()),
		layout: layout.NewSimple(),
		rec:    &recorder{},
		hub:    events.NewHub(50),
		log:    &stepLog{},
	}
	f.style = &fakeStyle{log: f.log}
	for _, name := range []string{"clock", "battery"} {
		if m, ok := modules[name]; ok {
			require.NoError(t, f.reg.Insert(name, m))
		}
	}
	f.orch = New(Deps{
		Store:    f.store,
		Modules:  f.reg,
		Layout:   &recordingLayout{Simple: f.layout, log: f.log},
		Style:    f.style,
		Logger:   log.Discard(),
		Recorder: f.rec,
		Events:   f.hub,
	})
	return f
}

func TestRunAppliesStepsInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := mocks.NewMockModule(ctrl)
	battery := mocks.NewMockModule(ctrl)
	f := newFixture(t, map[string]abi.Module{"clock": clock, "battery": battery})

	var blob string
	clock.EXPECT().UpdateConfig(gomock.Any()).DoAndReturn(func(b string) error {
		blob = b
		f.log.add("push:clock")
		return nil
	})
	clock.EXPECT().RestartProducers().Do(func() { f.log.add("restart:clock") })
	battery.EXPECT().RestartProducers().Do(func() { f.log.add("restart:battery") })

	label := widget.NewLabel("t")
	f.layout.AddActivity(abi.ActivityID{Module: "clock", Name: "time"}, label)

	r := f.orch.Run("test")

	assert.Equal(t, []string{
		"push:clock",
		"general-style",
		"layout",
		"style",
		"restart:clock",
		"restart:battery",
	}, f.log.steps)

	assert.False(t, r.Aborted())
	assert.Equal(t, metrics.OutcomeApplied, r.Outcome())
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, []string{"clock"}, r.Push.Pushed)
	assert.Equal(t, []string{"battery"}, r.Push.Skipped)
	assert.Equal(t, 1, r.Styled)
	assert.Equal(t, []string{"clock", "battery"}, r.Restarted)
	assert.Equal(t, "vertical", f.layout.Config().Orientation)
	assert.Contains(t, blob, "15:04")

	h, ok := label.Property(abi.PropMinimalHeight)
	require.True(t, ok)
	assert.InDelta(t, 48.0, h, 1e-9)
	b, _ := label.Property(abi.PropBlurRadius)
	assert.InDelta(t, 4.0, b, 1e-9)

	assert.Equal(t, []string{metrics.OutcomeApplied}, f.rec.outcomes)
	evs := f.hub.Since(0)
	require.NotEmpty(t, evs)
	assert.Equal(t, events.ReloadCompleted, evs[len(evs)-1].Topic)
}

func TestRunAbortsOnUnparsableConfig(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := mocks.NewMockModule(ctrl)
	f := newFixture(t, map[string]abi.Module{"clock": clock})

	clock.EXPECT().UpdateConfig(gomock.Any()).Return(nil).Times(1)
	clock.EXPECT().RestartProducers().Times(1)
	require.False(t, f.orch.Run("initial").Aborted())

	before := *f.store.Current()

	writeConfig(t, f.path, "loaded_modules: [clock\ngeneral_style_config: nope")
	f.log.steps = nil
	r := f.orch.Run("edit")

	assert.True(t, r.Aborted())
	assert.Equal(t, metrics.OutcomeAborted, r.Outcome())
	assert.Equal(t, before, *f.store.Current())
	assert.Empty(t, f.log.steps)
	assert.Equal(t, []string{metrics.OutcomeApplied, metrics.OutcomeAborted}, f.rec.outcomes)

	evs := f.hub.Since(0)
	assert.Equal(t, events.ReloadAborted, evs[len(evs)-1].Topic)
}

func TestRunContinuesPastStyleAndLayoutFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := mocks.NewMockModule(ctrl)
	f := newFixture(t, map[string]abi.Module{"clock": clock})

	require.NoError(t, f.layout.ParseConfig("orientation: vertical\nspacing: 2\n"))
	prevLayout := f.layout.Config()

	writeConfig(t, f.path, `
module_config:
  clock:
    format: bad
layout_configs:
  simple:
    orientation: sideways
`)
	f.style.err = errors.New("line 3: undefined variable")

	clock.EXPECT().UpdateConfig(gomock.Any()).Return(errors.New("unknown field"))
	clock.EXPECT().RestartProducers()

	r := f.orch.Run("edit")
	assert.False(t, r.Aborted())
	assert.Error(t, r.LayoutErr)
	assert.Error(t, r.StyleErr)
	assert.Contains(t, r.Push.Failed, "clock")
	assert.Equal(t, prevLayout, f.layout.Config())
	assert.Equal(t, []string{"clock"}, r.Restarted)
	assert.Equal(t, metrics.OutcomePartial, r.Outcome())

	topics := map[string]bool{}
	for _, ev := range f.hub.Since(0) {
		topics[ev.Topic] = true
	}
	assert.True(t, topics[events.ModuleConfigRejected])
	assert.True(t, topics[events.LayoutConfigRejected])
	assert.True(t, topics[events.StylesheetFailed])
}

func TestApplyLayoutConfigWithoutEntry(t *testing.T) {
	l := layout.NewSimple()
	cfg := config.Defaults()
	assert.NoError(t, ApplyLayoutConfig(l, cfg))
	assert.Equal(t, "horizontal", l.Config().Orientation)
}

func TestRunSkipsModuleStepsWhileRegistryBusy(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := mocks.NewMockModule(ctrl)
	f := newFixture(t, map[string]abi.Module{"clock": clock})

	var r Report
	f.reg.Each(func(string, abi.Module) {
		r = f.orch.Run("edit")
	})

	assert.False(t, r.Aborted())
	assert.ErrorIs(t, r.ModulesErr, registry.ErrBusy)
	assert.Empty(t, r.Push.Pushed)
	assert.Empty(t, r.Restarted)
	assert.Equal(t, []string{"general-style", "layout", "style"}, f.log.steps)
	assert.Equal(t, metrics.OutcomePartial, r.Outcome())

	topics := map[string]bool{}
	for _, ev := range f.hub.Since(0) {
		topics[ev.Topic] = true
	}
	assert.True(t, topics[events.ModulesSkipped])
	assert.True(t, topics[events.ReloadCompleted])
}

func TestRunLogsThroughReloadLoggerByDefault(t *testing.T) {
	var buf bytes.Buffer
	log.Setup("info", "json", &buf)
	t.Cleanup(func() { log.Setup("info", "json", nil) })

	f := newFixture(t, nil)
	orch := New(Deps{Store: f.store, Modules: f.reg, Layout: f.layout, Style: f.style})
	r := orch.Run("manual")

	assert.Contains(t, buf.String(), `"reload_id":"`+r.ID+`"`)
	assert.Contains(t, buf.String(), "reload finished")
}
