// Package diagnostics answers "can a verification run succeed on this
// machine" before any target is launched.
package diagnostics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	// minFreeMemoryMB covers target processes, the capture handler, and a
	// cdb instance resolving symbols.
	minFreeMemoryMB = 512
	// minSymbolCacheGB covers a cold symbol cache; os symbols alone run to
	// hundreds of megabytes.
	minSymbolCacheGB = 1
)

// PreflightCheck is one named environment probe. A failed probe is either
// blocking (Warning false) or advisory (Warning true).
type PreflightCheck struct {
	Name    string
	OK      bool
	Warning bool
	Detail  string
}

// PreflightResult aggregates environment probes. Warnings do not block a
// run; Errors mean a run would fail or hang.
type PreflightResult struct {
	Checks   []PreflightCheck
	Warnings []string
	Errors   []string
}

// OK reports whether every blocking probe passed.
func (r *PreflightResult) OK() bool {
	return len(r.Errors) == 0
}

func (r *PreflightResult) pass(name, detail string) {
	r.Checks = append(r.Checks, PreflightCheck{Name: name, OK: true, Detail: detail})
}

func (r *PreflightResult) fail(name, detail string) {
	r.Checks = append(r.Checks, PreflightCheck{Name: name, OK: false, Detail: detail})
	r.Errors = append(r.Errors, name+": "+detail)
}

func (r *PreflightResult) warn(name, detail string) {
	r.Checks = append(r.Checks, PreflightCheck{Name: name, OK: false, Warning: true, Detail: detail})
	r.Warnings = append(r.Warnings, name+": "+detail)
}

// Params names the run inputs the probes inspect.
type Params struct {
	// BinDir holds the instrumented targets and capture tools.
	BinDir string
	// RequiredExecutables must exist under BinDir, named without any
	// platform suffix.
	RequiredExecutables []string
	// SymbolCacheDir receives downloaded symbols; checked for space.
	SymbolCacheDir string
}

// Preflight probes the environment for the given run parameters.
func Preflight(p Params) *PreflightResult {
	res := &PreflightResult{}
	checkBinDir(res, p)
	checkMemory(res)
	checkSymbolCacheSpace(res, p.SymbolCacheDir)
	return res
}

func checkBinDir(res *PreflightResult, p Params) {
	info, err := os.Stat(p.BinDir)
	if err != nil || !info.IsDir() {
		res.fail("bin dir", fmt.Sprintf("%s is not a directory", p.BinDir))
		return
	}
	res.pass("bin dir", p.BinDir)

	for _, name := range p.RequiredExecutables {
		path := filepath.Join(p.BinDir, name)
		if _, err := os.Stat(path); err != nil {
			res.fail("executable "+name, path+" not found")
			continue
		}
		res.pass("executable "+name, path)
	}
}

func checkMemory(res *PreflightResult) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		res.warn("memory", "could not read memory statistics: "+err.Error())
		return
	}
	availMB := vm.Available / 1024 / 1024
	detail := fmt.Sprintf("%d MB available", availMB)
	if availMB < minFreeMemoryMB {
		res.fail("memory", detail+fmt.Sprintf(", need at least %d MB", minFreeMemoryMB))
		return
	}
	res.pass("memory", detail)
}

func checkSymbolCacheSpace(res *PreflightResult, cacheDir string) {
	if cacheDir == "" {
		return
	}
	// Walk up to the nearest existing ancestor; the cache dir itself is
	// usually created lazily on the first symbol download.
	probe := cacheDir
	for {
		if _, err := os.Stat(probe); err == nil {
			break
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			res.warn("symbol cache", "no existing ancestor of "+cacheDir)
			return
		}
		probe = parent
	}

	usage, err := disk.Usage(probe)
	if err != nil {
		res.warn("symbol cache", "could not read disk usage: "+err.Error())
		return
	}
	freeGB := float64(usage.Free) / 1024 / 1024 / 1024
	detail := fmt.Sprintf("%.1f GB free at %s", freeGB, probe)
	if freeGB < minSymbolCacheGB {
		res.warn("symbol cache", detail+fmt.Sprintf(", symbol downloads may fail below %d GB", minSymbolCacheGB))
		return
	}
	res.pass("symbol cache", detail)
}
