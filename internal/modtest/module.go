package modtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/mattjoyce/islet/pkg/abi"
	"github.com/mattjoyce/islet/pkg/modkit"
	"github.com/mattjoyce/islet/pkg/widget"
)

// Config is the fake module's config schema.
type Config struct {
	Text     string   `yaml:"text"`
	Activity []string `yaml:"activity"`
}

// Journal records module calls across instances, in call order.
type Journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *Journal) record(entry string) {
	if j == nil {
		return
	}
	j.mu.Lock()
	j.entries = append(j.entries, entry)
	j.mu.Unlock()
}

// Entries returns a copy of everything recorded so far.
func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

// Module is a scriptable abi.Module. Each producer generation adds one label
// per configured activity name and updates it with the configured text.
type Module struct {
	name      string
	sender    abi.CommandSender
	journal   *Journal
	producers *modkit.Producers

	mu       sync.Mutex
	cfg      Config
	inits    int
	restarts int
	labels   map[string]*widget.Label
}

// NewModule builds a fake module that emits through sender.
func NewModule(name string, sender abi.CommandSender, journal *Journal) *Module {
	return &Module{
		name:      name,
		sender:    sender,
		journal:   journal,
		producers: modkit.NewProducers(nil),
		labels:    make(map[string]*widget.Label),
	}
}

// Descriptor exports a fake module under name. Constructed instances are
// passed to built when it is non-nil.
func Descriptor(name string, journal *Journal, built func(*Module)) *abi.Descriptor {
	return &abi.Descriptor{
		Version: abi.Version,
		Name:    name,
		New: func(sender abi.CommandSender) (abi.Module, error) {
			m := NewModule(name, sender, journal)
			if built != nil {
				built(m)
			}
			return m, nil
		},
	}
}

// FailingDescriptor exports a module whose constructor always fails.
func FailingDescriptor(name string) *abi.Descriptor {
	return &abi.Descriptor{
		Version: abi.Version,
		Name:    name,
		New: func(abi.CommandSender) (abi.Module, error) {
			return nil, fmt.Errorf("%s: hardware not present", name)
		},
	}
}

func (m *Module) Init() {
	m.mu.Lock()
	m.inits++
	m.mu.Unlock()
	m.journal.record(m.name + ":init")
}

func (m *Module) UpdateConfig(blob string) error {
	var next Config
	if err := modkit.DecodeConfig(blob, &next); err != nil {
		m.journal.record(m.name + ":config-rejected")
		return err
	}
	m.mu.Lock()
	m.cfg = next
	m.mu.Unlock()
	m.journal.record(m.name + ":config")
	return nil
}

func (m *Module) RestartProducers() {
	m.mu.Lock()
	m.restarts++
	cfg := m.cfg
	m.mu.Unlock()
	m.journal.record(m.name + ":restart")

	m.producers.Restart(context.Background(), func(ctx context.Context) error {
		for _, name := range cfg.Activity {
			label := m.label(name)
			label.SetText(cfg.Text)
			m.sender.Send(abi.AddActivity{
				ID:     abi.ActivityID{Module: m.name, Name: name},
				Widget: label,
			})
		}
		<-ctx.Done()
		return ctx.Err()
	})
}

// Remove asks the host to drop an activity.
func (m *Module) Remove(name string) {
	m.sender.Send(abi.RemoveActivity{ID: abi.ActivityID{Module: m.name, Name: name}})
}

// Stop ends the running producer generation.
func (m *Module) Stop() {
	m.producers.Stop()
}

// Config returns the active configuration.
func (m *Module) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Inits returns how many times Init ran.
func (m *Module) Inits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inits
}

// Restarts returns how many times RestartProducers ran.
func (m *Module) Restarts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.restarts
}

func (m *Module) label(name string) *widget.Label {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.labels[name]
	if !ok {
		l = widget.NewLabel(name)
		m.labels[name] = l
	}
	return l
}
