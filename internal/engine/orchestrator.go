package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/unidown/unidown/internal/output"
)

// Orchestrator is the front door for downloads: it builds the command
// for a request, supervises the process, and reports the outcome.
type Orchestrator struct {
	Builder *Builder
	Sink    output.Sink
	Env     []string
}

func NewOrchestrator(builder *Builder, sink output.Sink, env []string) *Orchestrator {
	if sink == nil {
		sink = output.Discard
	}
	return &Orchestrator{Builder: builder, Sink: sink, Env: env}
}

// Controller is the caller's handle on one tracked download.
type Controller struct {
	ID      string
	sup     *Supervisor
	done    chan struct{}
	outcome Outcome
}

// Stop requests termination of the underlying process. Safe to call
// repeatedly and from any goroutine.
func (c *Controller) Stop() {
	c.sup.Stop()
}

// State returns the download's current lifecycle state.
func (c *Controller) State() State {
	return c.sup.State()
}

// Done is closed once the download reached a terminal state and the
// completion callback has run.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the download finishes and returns its outcome.
func (c *Controller) Wait() Outcome {
	<-c.done
	return c.outcome
}

// RunTracked starts a download and returns a controller for it. onDone
// is invoked exactly once with the terminal outcome, whether the process
// finished, failed, or was stopped mid-flight.
func (o *Orchestrator) RunTracked(opts DownloadOptions, onDone func(Outcome)) (*Controller, error) {
	cmd, err := o.Builder.Build(opts)
	if err != nil {
		return nil, err
	}
	sup := NewSupervisor(o.Sink)
	sup.Env = o.Env
	if err := sup.Start(cmd); err != nil {
		return nil, err
	}
	ctl := &Controller{
		ID:   uuid.New().String(),
		sup:  sup,
		done: make(chan struct{}),
	}
	log.Debug().Str("op", "engine/orchestrator").Str("id", ctl.ID).Msg("Download started")
	go func() {
		outcome := sup.Wait()
		o.report(outcome)
		if onDone != nil {
			onDone(outcome)
		}
		ctl.outcome = outcome
		close(ctl.done)
	}()
	return ctl, nil
}

// RunBlocking runs a download to completion. It reports success plus the
// process exit code, which is -1 when the process never started.
func (o *Orchestrator) RunBlocking(opts DownloadOptions) (bool, int) {
	ctl, err := o.RunTracked(opts, nil)
	if err != nil {
		o.Sink(fmt.Sprintf("Download not started: %s", err), output.LevelError)
		return false, -1
	}
	outcome := ctl.Wait()
	return outcome.Success, outcome.ExitCode
}

func (o *Orchestrator) report(outcome Outcome) {
	switch outcome.State {
	case StateCompleted:
		o.Sink("Download completed", output.LevelSuccess)
	case StateCancelled:
		o.Sink("Download cancelled", output.LevelWarning)
	default:
		o.Sink(fmt.Sprintf("Download failed (exit code %d)", outcome.ExitCode), output.LevelError)
	}
}
