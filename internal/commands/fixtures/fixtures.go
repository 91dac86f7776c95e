// Package fixtures records where di.RegisterCommands sends each handler.
package fixtures

import (
	"sync"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-cms-nav/internal/di"
)

// Target names one integration point of di.RegistrationOptions.
type Target string

const (
	TargetRegistry   Target = "registry"
	TargetDispatcher Target = "dispatcher"
	TargetCron       Target = "cron"
)

// Entry is one recorded registration. Cron is set for TargetCron only.
type Entry struct {
	Target  Target
	Handler any
	Cron    command.HandlerConfig
}

// Wiring fakes the registry, dispatcher and cron integrations at once.
type Wiring struct {
	mu           sync.Mutex
	entries      []Entry
	failures     map[Target]error
	unsubscribed int
}

func NewWiring() *Wiring {
	return &Wiring{failures: map[Target]error{}}
}

// FailOn makes every registration against target return err.
func (w *Wiring) FailOn(target Target, err error) *Wiring {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failures[target] = err
	return w
}

// Options returns registration options pointing at all three fakes.
func (w *Wiring) Options() di.RegistrationOptions {
	return di.RegistrationOptions{
		Registry:      registry{w},
		Dispatcher:    dispatcher{w},
		CronRegistrar: w.registerCron,
	}
}

// Entries lists the registrations recorded for target, in order.
func (w *Wiring) Entries(target Target) []Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []Entry
	for _, entry := range w.entries {
		if entry.Target == target {
			out = append(out, entry)
		}
	}
	return out
}

// Unsubscribed counts dispatcher subscriptions that were released.
func (w *Wiring) Unsubscribed() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.unsubscribed
}

func (w *Wiring) record(entry Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.failures[entry.Target]; err != nil {
		return err
	}
	w.entries = append(w.entries, entry)
	return nil
}

func (w *Wiring) registerCron(cfg command.HandlerConfig, handler any) error {
	return w.record(Entry{Target: TargetCron, Handler: handler, Cron: cfg})
}

type registry struct{ w *Wiring }

func (r registry) RegisterCommand(handler any) error {
	return r.w.record(Entry{Target: TargetRegistry, Handler: handler})
}

type dispatcher struct{ w *Wiring }

func (d dispatcher) RegisterCommand(handler any) (di.CommandSubscription, error) {
	if err := d.w.record(Entry{Target: TargetDispatcher, Handler: handler}); err != nil {
		return nil, err
	}
	return subscription{d.w}, nil
}

type subscription struct{ w *Wiring }

func (s subscription) Unsubscribe() {
	s.w.mu.Lock()
	s.w.unsubscribed++
	s.w.mu.Unlock()
}
