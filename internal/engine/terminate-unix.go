//go:build linux || darwin

package engine

import (
	"os"
	"os/exec"
	"syscall"
)

func terminate(p *os.Process) {
	p.Signal(syscall.SIGTERM)
}

func hideConsole(cmd *exec.Cmd) {}
