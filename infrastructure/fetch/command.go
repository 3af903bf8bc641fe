package fetch

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"seedflow/models"
)

// CommandCall performs one bridge command.
type CommandCall func(ctx context.Context) (models.CommandResult, error)

// CommandState mirrors the last command outcome.
type CommandState struct {
	Result  *models.CommandResult
	Loading bool
	Error   string
}

// Command wraps a bridge command so callers can tell a business rejection
// (StatusErro) from a malformed answer and from a transport failure.
type Command struct {
	mu      sync.Mutex
	name    string
	failMsg string
	state   CommandState
	logger  *zap.Logger
}

func NewCommand(name string, opts ...Option) *Command {
	o := buildOptions(name, opts)
	return &Command{
		name:    name,
		failMsg: o.failMsg,
		logger:  o.logger.With(zap.String("command", name)),
	}
}

// Run executes call. It returns the parsed result; nil with no error when the
// payload was malformed; the transport error unchanged otherwise.
func (c *Command) Run(ctx context.Context, call CommandCall) (*models.CommandResult, error) {
	c.mu.Lock()
	c.state.Loading = true
	c.state.Error = ""
	c.mu.Unlock()

	res, err := call(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = false
	switch {
	case err == nil:
		c.state.Result = &res
		out := res
		return &out, nil
	case errors.Is(err, models.ErrInvalidDataFormat):
		c.state.Error = InvalidDataFormat
		c.logger.Warn("malformed command response", zap.Error(err))
		return nil, nil
	default:
		c.state.Error = c.failMsg
		return nil, err
	}
}

func (c *Command) Snapshot() CommandState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	if s.Result != nil {
		r := *s.Result
		s.Result = &r
	}
	return s
}
