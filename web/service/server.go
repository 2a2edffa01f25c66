package service

import (
	"puntibot/logger"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// Status is a snapshot of the host the bot runs on, reported by /status.
type Status struct {
	Cpu      float64
	MemUsed  uint64
	MemTotal uint64
	Uptime   uint64
}

type ServerService struct{}

func (s *ServerService) GetStatus() *Status {
	status := &Status{}

	percents, err := cpu.Percent(0, false)
	if err != nil {
		logger.Warning("get cpu percent failed:", err)
	} else if len(percents) > 0 {
		status.Cpu = percents[0]
	}

	memInfo, err := mem.VirtualMemory()
	if err != nil {
		logger.Warning("get virtual memory failed:", err)
	} else {
		status.MemUsed = memInfo.Used
		status.MemTotal = memInfo.Total
	}

	uptime, err := host.Uptime()
	if err != nil {
		logger.Warning("get uptime failed:", err)
	} else {
		status.Uptime = uptime
	}

	return status
}
