package platform

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// OpenFolder reveals path in the system file manager, creating it first
// if needed.
func OpenFolder(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("error creating folder: %w", err)
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("explorer", path)
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("error opening folder: %w", err)
	}
	return nil
}
