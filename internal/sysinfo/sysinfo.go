// Package sysinfo describes the host the player runs on.
package sysinfo

import (
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
	"github.com/shirou/gopsutil/v3/host"

	"github.com/tphakala/tonebarrier/internal/errors"
)

// Info holds host details without identifying data such as hostname or host id.
type Info struct {
	OS              string `json:"os"`
	Arch            string `json:"arch"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platform_version"`
	KernelVersion   string `json:"kernel_version"`
	Virtualization  string `json:"virtualization,omitempty"`
	CPU             string `json:"cpu"`
	LogicalCores    int    `json:"logical_cores"`
	UptimeSeconds   uint64 `json:"uptime_seconds"`
	GoVersion       string `json:"go_version"`
}

// Collect gathers host details. Runtime and CPU fields are always filled;
// when the host query fails the partial Info is returned with the error.
func Collect() (Info, error) {
	info := Info{
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
		CPU:          strings.TrimSpace(cpuid.CPU.BrandName),
		LogicalCores: cpuid.CPU.LogicalCores,
		GoVersion:    runtime.Version(),
	}
	if info.CPU == "" {
		info.CPU = "unknown"
	}
	if info.LogicalCores == 0 {
		info.LogicalCores = runtime.NumCPU()
	}

	h, err := host.Info()
	if err != nil {
		return info, errors.New(err).
			Component("sysinfo").
			Category(errors.CategoryGeneric).
			Priority(errors.PriorityLow).
			Context("operation", "host_info").
			Build()
	}

	info.Platform = h.Platform
	info.PlatformVersion = h.PlatformVersion
	info.KernelVersion = h.KernelVersion
	info.UptimeSeconds = h.Uptime
	if h.VirtualizationRole == "guest" {
		info.Virtualization = h.VirtualizationSystem
	}
	return info, nil
}
