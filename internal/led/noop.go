package led

import (
	"time"

	"github.com/smazurov/ledring/internal/logging"
)

// noop implements Controller for dry runs: requests are validated and the
// command that would be sent is logged.
type noop struct {
	defaultDelay time.Duration
	logger       logging.Logger
}

func newNoop(defaultDelay time.Duration, logger logging.Logger) *noop {
	return &noop{defaultDelay: defaultDelay, logger: logger}
}

// Set logs the request but sends nothing.
func (n *noop) Set(req Request) error {
	plan, err := Build(req, n.defaultDelay)
	if err != nil {
		return err
	}
	n.logger.Info("Dry run, not sending",
		"effect", req.Effect,
		"command", plan.Command,
		"pulse", plan.Pulse)
	return nil
}

func (n *noop) Available() []string {
	return Effects()
}

func (n *noop) Patterns() []string {
	return BuiltinPatterns()
}
