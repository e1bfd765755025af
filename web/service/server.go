package service

import (
	"runtime"
	"strconv"
	"time"

	"github.com/identra/identra/logger"
	"github.com/identra/identra/util/sys"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

var startTime = time.Now()

// Status is a point-in-time snapshot of the host and process, served on the
// admin status endpoint.
type Status struct {
	T          time.Time `json:"t"`
	Cpu        float64   `json:"cpu"`
	CpuCores   int       `json:"cpuCores"`
	LogicalPro int       `json:"logicalPro"`
	Uptime     uint64    `json:"uptime"`
	Mem        struct {
		Current uint64 `json:"current"`
		Total   uint64 `json:"total"`
	} `json:"mem"`
	TcpCount int `json:"tcpCount"`
	UdpCount int `json:"udpCount"`
	AppStats struct {
		Mem    uint64 `json:"mem"`
		Uptime uint64 `json:"uptime"`
	} `json:"appStats"`
}

// ServerService collects host status and exposes buffered logs for the
// admin surface.
type ServerService struct{}

func (s *ServerService) GetStatus() *Status {
	now := time.Now()
	status := &Status{T: now}

	percents, err := cpu.Percent(0, false)
	if err != nil {
		logger.Warning("get cpu percent failed:", err)
	} else if len(percents) > 0 {
		status.Cpu = percents[0]
	}

	status.CpuCores, err = cpu.Counts(false)
	if err != nil {
		logger.Warning("get cpu cores count failed:", err)
	}
	status.LogicalPro = runtime.NumCPU()

	upTime, err := host.Uptime()
	if err != nil {
		logger.Warning("get uptime failed:", err)
	} else {
		status.Uptime = upTime
	}

	memInfo, err := mem.VirtualMemory()
	if err != nil {
		logger.Warning("get virtual memory failed:", err)
	} else {
		status.Mem.Current = memInfo.Used
		status.Mem.Total = memInfo.Total
	}

	status.TcpCount, err = sys.GetTCPCount()
	if err != nil {
		logger.Warning("get tcp connections failed:", err)
	}
	status.UdpCount, err = sys.GetUDPCount()
	if err != nil {
		logger.Warning("get udp connections failed:", err)
	}

	var rtm runtime.MemStats
	runtime.ReadMemStats(&rtm)
	status.AppStats.Mem = rtm.Sys
	status.AppStats.Uptime = uint64(now.Sub(startTime).Seconds())

	return status
}

// GetLogs returns buffered log lines. Count and level arrive as query
// strings and fall back to sane values.
func (s *ServerService) GetLogs(count string, level string) []string {
	c, err := strconv.Atoi(count)
	if err != nil || c <= 0 {
		c = 50
	}
	if level == "" {
		level = "info"
	}
	return logger.GetLogs(c, level)
}
