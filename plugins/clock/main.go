// Command clock is an example islet module showing the current time.
//
// Build it as a plugin and drop it into the modules directory:
//
//	go build -buildmode=plugin -o ~/.config/islet/modules/clock.so ./plugins/clock
package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mattjoyce/islet/internal/log"
	"github.com/mattjoyce/islet/pkg/abi"
	"github.com/mattjoyce/islet/pkg/modkit"
	"github.com/mattjoyce/islet/pkg/widget"
	"github.com/robfig/cron/v3"
)

const moduleName = "clock"

// IsletModule is looked up by the host.
var IsletModule = abi.Descriptor{
	Version: abi.Version,
	Name:    moduleName,
	New:     newClock,
}

// Config is the clock's module_config entry.
type Config struct {
	// Format is a Go time layout.
	Format string `yaml:"format"`
	// Refresh is a cron spec; descriptors like "@every 30s" are accepted.
	Refresh string `yaml:"refresh"`
	Label   string `yaml:"label"`
}

func defaultConfig() Config {
	return Config{
		Format:  "15:04:05",
		Refresh: "@every 1s",
		Label:   "Clock",
	}
}

func (c Config) validate() error {
	if c.Format == "" {
		return fmt.Errorf("format must not be empty")
	}
	if _, err := cron.ParseStandard(c.Refresh); err != nil {
		return fmt.Errorf("refresh %q: %w", c.Refresh, err)
	}
	return nil
}

// Clock renders the time into a single label activity.
type Clock struct {
	sender    abi.CommandSender
	label     *widget.Label
	producers *modkit.Producers
	logger    *slog.Logger
	now       func() time.Time

	mu  sync.Mutex
	cfg Config
}

var _ abi.Module = (*Clock)(nil)

func newClock(sender abi.CommandSender) (abi.Module, error) {
	return New(sender), nil
}

// New returns a clock with the default configuration.
func New(sender abi.CommandSender) *Clock {
	logger := log.WithModule(moduleName)
	cfg := defaultConfig()
	return &Clock{
		sender:    sender,
		label:     widget.NewLabel(cfg.Label),
		producers: modkit.NewProducers(logger),
		logger:    logger,
		now:       time.Now,
		cfg:       cfg,
	}
}

// ActivityID is the clock's only activity.
func ActivityID() abi.ActivityID {
	return abi.ActivityID{Module: moduleName, Name: "time"}
}

func (c *Clock) Init() {
	c.render()
	c.sender.Send(abi.AddActivity{ID: ActivityID(), Widget: c.label})
}

// UpdateConfig keeps the current settings when blob does not decode or
// validate.
func (c *Clock) UpdateConfig(blob string) error {
	c.mu.Lock()
	next := c.cfg
	c.mu.Unlock()

	if err := modkit.DecodeConfig(blob, &next); err != nil {
		return err
	}
	if err := next.validate(); err != nil {
		return fmt.Errorf("clock config: %w", err)
	}

	c.mu.Lock()
	c.cfg = next
	c.mu.Unlock()
	c.label.SetTitle(next.Label)
	return nil
}

func (c *Clock) RestartProducers() {
	cfg := c.Config()
	c.producers.Restart(context.Background(), func(ctx context.Context) error {
		return c.tick(ctx, cfg)
	})
}

// Config returns the settings currently in effect.
func (c *Clock) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Stop halts the producer.
func (c *Clock) Stop() {
	c.producers.Stop()
}

func (c *Clock) tick(ctx context.Context, cfg Config) error {
	sched := cron.New()
	if _, err := sched.AddFunc(cfg.Refresh, c.render); err != nil {
		return fmt.Errorf("schedule %q: %w", cfg.Refresh, err)
	}
	c.render()
	sched.Start()
	<-ctx.Done()
	<-sched.Stop().Done()
	return nil
}

func (c *Clock) render() {
	c.label.SetText(c.now().Format(c.Config().Format))
}

func main() {}
