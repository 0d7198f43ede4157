package artifact

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

// The tool and target names are fixed by the build that produces them;
// any drift means preflight demands, and Produce spawns, executables that
// do not exist.
func TestTargetNamesMatchBuildOutputs(t *testing.T) {
	assert.Equal(t, "crashy_program", TargetCrashy)
	assert.Equal(t, "self_destroying_program", TargetSelfDestroying)
	assert.Equal(t, "crashy_z7_loader", TargetZ7Loader)
	assert.Equal(t, "crash_other_program", TargetOther)
}

func TestToolExecutableNames(t *testing.T) {
	if runtime.GOOS == "windows" {
		assert.Equal(t, "crashpad_handler.com", HandlerExecutable())
		assert.Equal(t, "crashpad_database_util.exe", DatabaseUtilExecutable())
		assert.Equal(t, "crashy_program.exe", ExeName(TargetCrashy))
		return
	}
	assert.Equal(t, "crashpad_handler", HandlerExecutable())
	assert.Equal(t, "crashpad_database_util", DatabaseUtilExecutable())
	assert.Equal(t, "crashy_program", ExeName(TargetCrashy))
}
