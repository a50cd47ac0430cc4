//go:build windows

package engine

import (
	"os"
	"os/exec"
	"strconv"
	"syscall"
)

// terminate kills the whole process tree. The downloader tools spawn
// helpers (ffmpeg, aria2c), and plain Kill would orphan them.
func terminate(p *os.Process) {
	kill := exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(p.Pid))
	hideConsole(kill)
	if err := kill.Run(); err != nil {
		p.Kill()
	}
}

func hideConsole(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.HideWindow = true
}
