package debugger

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/crashcheck/crashcheck/internal/core"
)

// kitRelPaths are conventional cdb install locations relative to a root
// such as %PROGRAMFILES(X86)%. Newer kits before older, x64 before x86.
var kitRelPaths = []string{
	filepath.Join("Windows Kits", "10", "Debuggers", "x64"),
	filepath.Join("Windows Kits", "10", "Debuggers", "x86"),
	filepath.Join("Windows Kits", "8.1", "Debuggers", "x64"),
	filepath.Join("Windows Kits", "8.1", "Debuggers", "x86"),
	filepath.Join("Windows Kits", "8.0", "Debuggers", "x64"),
	filepath.Join("Windows Kits", "8.0", "Debuggers", "x86"),
	"Debugging Tools For Windows (x64)",
	"Debugging Tools For Windows (x86)",
	"Debugging Tools For Windows",
}

// rootEnvVars are the roots the kit paths are joined under, in priority
// order, followed by every PATH entry.
var rootEnvVars = []string{
	"PROGRAMFILES(X86)",
	"PROGRAMFILES",
	"PROGRAMW6432",
	"LOCALAPPDATA",
}

// Locate finds the cdb executable. An explicit override short-circuits
// discovery but must exist.
func Locate(override string) (string, error) {
	if override != "" {
		if isFile(override) {
			return override, nil
		}
		return "", core.ErrSetup(core.CodeCdbNotFound, "configured debugger path does not exist: "+override)
	}

	exe := cdbExecutable()
	for _, rel := range kitRelPaths {
		if path := findInstalledApplication(filepath.Join(rel, exe)); path != "" {
			return path, nil
		}
	}
	// Last resort: bare executable on PATH.
	if path := searchPathList(exe); path != "" {
		return path, nil
	}
	return "", core.ErrSetup(core.CodeCdbNotFound, "could not find "+exe+" in any conventional location")
}

// findInstalledApplication joins relPath under each conventional root and
// each PATH entry, returning the first hit.
func findInstalledApplication(relPath string) string {
	for _, env := range rootEnvVars {
		root := os.Getenv(env)
		if root == "" {
			continue
		}
		if p := filepath.Join(root, relPath); isFile(p) {
			return p
		}
	}
	return searchPathList(relPath)
}

func searchPathList(relPath string) string {
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			continue
		}
		if p := filepath.Join(dir, relPath); isFile(p) {
			return p
		}
	}
	return ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func cdbExecutable() string {
	if runtime.GOOS == "windows" {
		return "cdb.exe"
	}
	return "cdb"
}

// IsX64BinDir reports whether a build output directory holds 64-bit
// binaries, by the naming convention the build system uses.
func IsX64BinDir(binDir string) bool {
	return strings.HasSuffix(strings.TrimRight(binDir, `/\`), "x64")
}
