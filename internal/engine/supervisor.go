package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unidown/unidown/internal/output"
)

// State tracks a supervised download process through its lifecycle.
type State string

const (
	StateIdle      State = "Idle"
	StateStarting  State = "Starting"
	StateRunning   State = "Running"
	StateCompleted State = "Completed"
	StateFailed    State = "Failed"
	StateCancelled State = "Cancelled"
)

func (s State) String() string {
	return string(s)
}

// IsActive reports whether the process is still doing work.
func (s State) IsActive() bool {
	return s == StateStarting || s == StateRunning
}

// IsFinished reports whether the process reached a terminal state.
func (s State) IsFinished() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// The downloader tools do not use exit codes consistently, so their
// output is scanned for failure markers as well. A run only counts as
// successful when the process exits zero and none of these appeared.
var errorMarkers = []string{"error", "403", "not found", "failed", "exception"}

func hasErrorMarker(line string) bool {
	lower := strings.ToLower(line)
	for _, marker := range errorMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Outcome is the terminal result of one supervised process.
type Outcome struct {
	State    State
	ExitCode int
	Success  bool
}

// Supervisor runs a single external process, streams its combined output
// line by line to the sink, and classifies the result. One supervisor
// drives at most one process over its lifetime.
type Supervisor struct {
	Sink output.Sink
	Env  []string

	mu            sync.Mutex
	state         State
	cmd           *exec.Cmd
	pw            *io.PipeWriter
	stopped       bool
	errorDetected bool
	scanDone      chan struct{}
}

func NewSupervisor(sink output.Sink) *Supervisor {
	if sink == nil {
		sink = output.Discard
	}
	return &Supervisor{Sink: sink, state: StateIdle}
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start spawns the process. It fails with ErrBusy when a process was
// already started and with ErrCancelled when Stop arrived first.
func (s *Supervisor) Start(cmd *Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrBusy
	}
	if s.stopped {
		s.state = StateCancelled
		return ErrCancelled
	}
	s.state = StateStarting

	c := exec.Command(cmd.Path, cmd.Args...)
	if len(s.Env) > 0 {
		c.Env = s.Env
	}
	hideConsole(c)
	// helper processes (ffmpeg, aria2c) can outlive the tool and keep
	// its output pipes open; WaitDelay stops Wait from hanging on them
	c.WaitDelay = 3 * time.Second
	pr, pw := io.Pipe()
	c.Stdout = pw
	c.Stderr = pw
	s.scanDone = make(chan struct{})
	go s.scan(pr)

	if err := c.Start(); err != nil {
		s.state = StateFailed
		pw.Close()
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	s.cmd = c
	s.pw = pw
	s.state = StateRunning
	log.Debug().Str("op", "engine/supervisor").Int("pid", c.Process.Pid).Msgf("Started %s", cmd.Redacted())
	return nil
}

func (s *Supervisor) scan(r io.Reader) {
	defer close(s.scanDone)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if hasErrorMarker(line) {
			s.mu.Lock()
			s.errorDetected = true
			s.mu.Unlock()
			s.Sink(line, output.LevelError)
		} else {
			s.Sink(line, output.LevelNone)
		}
	}
}

// Wait blocks until the process exits and its output is fully drained,
// then classifies the run. Calling Wait on a never-started supervisor
// returns the current state with no exit code.
func (s *Supervisor) Wait() Outcome {
	s.mu.Lock()
	c := s.cmd
	pw := s.pw
	s.mu.Unlock()
	if c == nil {
		state := s.State()
		return Outcome{State: state, Success: false}
	}

	err := c.Wait()
	if errors.Is(err, exec.ErrWaitDelay) {
		err = nil
	}
	pw.Close()
	<-s.scanDone

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.stopped:
		s.state = StateCancelled
	case err == nil && !s.errorDetected:
		s.state = StateCompleted
	default:
		s.state = StateFailed
	}
	log.Debug().Str("op", "engine/supervisor").Int("exitCode", exitCode).Str("state", string(s.state)).Msg("Process finished")
	return Outcome{State: s.state, ExitCode: exitCode, Success: s.state == StateCompleted}
}

// Stop requests termination. Before Start it poisons the supervisor so
// a later Start reports ErrCancelled; after exit it is a no-op. Safe to
// call any number of times from any goroutine.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.state.IsFinished() {
		return
	}
	s.stopped = true
	if s.cmd != nil && s.cmd.Process != nil {
		log.Debug().Str("op", "engine/supervisor").Int("pid", s.cmd.Process.Pid).Msg("Terminating process")
		terminate(s.cmd.Process)
	}
}
