package artifact

import "runtime"

// Instrumented target base names within the binary directory, without any
// platform suffix.
const (
	TargetCrashy         = "crashy_program"
	TargetSelfDestroying = "self_destroying_program"
	TargetZ7Loader       = "crashy_z7_loader"
	TargetOther          = "crash_other_program"
)

// ExeName appends the platform executable suffix to a base name.
func ExeName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// HandlerExecutable is the capture server's name within the binary
// directory. The .com variant is the console-subsystem build.
func HandlerExecutable() string {
	if runtime.GOOS == "windows" {
		return "crashpad_handler.com"
	}
	return "crashpad_handler"
}

// DatabaseUtilExecutable is the report-database tool's name within the
// binary directory.
func DatabaseUtilExecutable() string {
	if runtime.GOOS == "windows" {
		return "crashpad_database_util.exe"
	}
	return "crashpad_database_util"
}
