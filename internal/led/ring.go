package led

import (
	"time"

	"github.com/smazurov/ledring/internal/dispatch"
	"github.com/smazurov/ledring/internal/logging"
)

// Dispatcher is the part of *dispatch.Dispatcher the ring controller uses.
type Dispatcher interface {
	Dispatch(cmd string) error
	DispatchIfIdle(cmd string) (bool, error)
	StartPulse(cmd string, speed int, delay time.Duration) error
	Cancel()
	Status() dispatch.Status
}

// ring drives the LED ring through the command dispatcher.
type ring struct {
	dispatcher   Dispatcher
	defaultDelay time.Duration
	logger       logging.Logger
}

func newRing(d Dispatcher, defaultDelay time.Duration, logger logging.Logger) *ring {
	return &ring{dispatcher: d, defaultDelay: defaultDelay, logger: logger}
}

// Set builds the command for req and hands it to the dispatcher.
func (r *ring) Set(req Request) error {
	plan, err := Build(req, r.defaultDelay)
	if err != nil {
		return err
	}

	r.logger.Debug("Applying effect", "effect", req.Effect, "command", plan.Command)

	if plan.Pulse {
		return r.dispatcher.StartPulse(plan.Command, plan.Speed, plan.Delay)
	}
	return r.dispatcher.Dispatch(plan.Command)
}

func (r *ring) Available() []string {
	return Effects()
}

func (r *ring) Patterns() []string {
	return BuiltinPatterns()
}
