package decoder

import (
	"fmt"
	"time"

	ps "github.com/shirou/gopsutil/v3/process"
)

// Sampler measures a process's CPU utilisation.
type Sampler interface {
	// Percent blocks for window and returns the CPU percent used over it.
	Percent(pid int, window time.Duration) (float64, error)
}

// CPUSampler reads CPU time from the OS.
type CPUSampler struct{}

func (CPUSampler) Percent(pid int, window time.Duration) (float64, error) {
	exists, err := ps.PidExists(int32(pid))
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("process %d not found", pid)
	}

	p, err := ps.NewProcess(int32(pid))
	if err != nil {
		return 0, err
	}
	return p.Percent(window)
}
