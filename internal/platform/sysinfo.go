package platform

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/unidown/unidown/internal/utils"
)

const maxAutoThreads = 32

// DefaultThreads picks a thread count for accelerated and stream engines
// from the logical CPU count, clamped to a sane range.
func DefaultThreads() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return 4
	}
	if n > maxAutoThreads {
		return maxAutoThreads
	}
	return n
}

// SystemSummary is a one-line hardware description for status output.
func SystemSummary() string {
	cores, err := cpu.Counts(true)
	if err != nil {
		cores = 0
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return fmt.Sprintf("%d logical CPUs", cores)
	}
	return fmt.Sprintf("%d logical CPUs, %s free of %s RAM",
		cores, utils.FormatBytes(vm.Available), utils.FormatBytes(vm.Total))
}
