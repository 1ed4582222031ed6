// Package action renders and runs the per-urgency custom commands.
package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/jmylchreest/notistack/internal/config"
	"github.com/jmylchreest/notistack/internal/model"
)

// Default limits for running commands.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxInFlight = 10
)

var (
	// ErrBusy is returned when too many commands are still running.
	ErrBusy = errors.New("too many custom commands running")
	// ErrStopped is returned by Run after Stop.
	ErrStopped = errors.New("command runner stopped")
)

// Data is the value custom command templates are rendered against.
type Data struct {
	ID          uint32
	AppName     string
	Summary     string
	Body        string
	Urgency     string
	UrgencyText string
	Timestamp   int64
	UnreadCount int
}

// NewData builds the template data for a notification.
func NewData(cfg *config.Config, n model.Notification, unreadCount int) Data {
	return Data{
		ID:          n.ID,
		AppName:     n.AppName,
		Summary:     n.Summary,
		Body:        n.Body,
		Urgency:     n.Urgency.String(),
		UrgencyText: cfg.UrgencyText(n.Urgency),
		Timestamp:   n.Timestamp,
		UnreadCount: unreadCount,
	}
}

// Render returns the command strings for the custom commands of n's urgency
// whose filter matches n.
func Render(cfg *config.Config, n model.Notification, unreadCount int) ([]string, error) {
	commands := cfg.Urgency(n.Urgency).CustomCommands
	if len(commands) == 0 {
		return nil, nil
	}

	data := NewData(cfg, n, unreadCount)
	var out []string
	var errs []error
	for i := range commands {
		cc := &commands[i]
		if !cc.Filter.Matches(n) {
			continue
		}
		s, err := cc.Render(data)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, s)
	}
	return out, errors.Join(errs...)
}

// Runner starts commands through sh -c without waiting for them.
type Runner struct {
	shell       string
	timeout     time.Duration
	maxInFlight int
	logger      *slog.Logger

	// ctx is cancelled by Stop and kills every running command.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	inFlight int
	wg       sync.WaitGroup
}

// NewRunner creates a runner with the default shell and limits.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		ctx:         ctx,
		cancel:      cancel,
		shell:       "sh",
		timeout:     DefaultTimeout,
		maxInFlight: DefaultMaxInFlight,
		logger:      logger,
	}
}

// SetTimeout changes how long a command may run before it is killed.
func (r *Runner) SetTimeout(d time.Duration) {
	r.mu.Lock()
	r.timeout = d
	r.mu.Unlock()
}

// Run starts command in the background. An error means the command could
// not be started; its exit status is only logged.
func (r *Runner) Run(command string) error {
	r.mu.Lock()
	if r.ctx.Err() != nil {
		r.mu.Unlock()
		return ErrStopped
	}
	if r.inFlight >= r.maxInFlight {
		r.mu.Unlock()
		return ErrBusy
	}
	r.inFlight++
	r.wg.Add(1)
	timeout := r.timeout
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(r.ctx, timeout)
	cmd := exec.CommandContext(ctx, r.shell, "-c", command)
	if err := cmd.Start(); err != nil {
		cancel()
		r.done()
		r.wg.Done()
		return fmt.Errorf("start custom command: %w", err)
	}

	start := time.Now()
	go func() {
		defer r.wg.Done()
		defer r.done()
		defer cancel()

		if err := cmd.Wait(); err != nil {
			if r.ctx.Err() != nil {
				r.logger.Debug("custom command killed on stop", "command", command)
				return
			}
			r.logger.Warn("custom command failed", "command", command, "error", err)
			return
		}
		r.logger.Debug("custom command finished", "command", command, "duration", time.Since(start))
	}()
	return nil
}

// Wait blocks until every started command has exited.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Stop kills the running commands, waits for them to exit and refuses new
// ones.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.cancel()
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Runner) done() {
	r.mu.Lock()
	r.inFlight--
	r.mu.Unlock()
}
