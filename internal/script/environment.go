package script

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
)

// Environment is the flat key-value map !if conditions evaluate against:
// process/host metadata plus whatever !set has defined. Nesting is
// forbidden by construction — there is no value type here but string, so a
// !set can never introduce a sub-map.
type Environment map[string]string

// NewEnvironment builds the base environment from process/host facts,
// grounded on spec §4.1 ("OS, memory, CPU if available"). Calls that fail
// (e.g. sandboxed environments without /proc) leave their key absent rather
// than aborting — a scenario's !if directives are expected to guard with
// an explicit presence check when a fact might not be available.
func NewEnvironment() Environment {
	env := Environment{
		"os":   runtime.GOOS,
		"arch": runtime.GOARCH,
	}

	if hi, err := host.Info(); err == nil {
		env["hostname"] = hi.Hostname
		env["platform"] = hi.Platform
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		env["mem_total_mb"] = fmt.Sprintf("%d", vm.Total/(1024*1024))
	}
	if cores, err := cpu.Counts(true); err == nil {
		env["cpu_count"] = fmt.Sprintf("%d", cores)
	}

	return env
}

// Set applies a !set directive's key/value pair. Re-setting a key
// overwrites it; there is no scoping.
func (e Environment) Set(key, value string) {
	e[key] = value
}
