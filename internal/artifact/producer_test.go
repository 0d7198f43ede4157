package artifact

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crashcheck/crashcheck/internal/core"
	"github.com/crashcheck/crashcheck/internal/fsutil"
	"github.com/crashcheck/crashcheck/internal/logging"
)

// fakeDatabase is an in-memory core.DatabaseUtil.
type fakeDatabase struct {
	createErr  error
	listing    string
	listingErr error
	created    []string
}

func (f *fakeDatabase) Create(_ context.Context, dir string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, dir)
	return nil
}

func (f *fakeDatabase) CompletedReports(context.Context, string) (string, error) {
	return f.listing, f.listingErr
}

// fakeRunner records spawned commands. Starting the handler creates the
// pipe path so the readiness wait succeeds.
type fakeRunner struct {
	runs      [][]string
	starts    [][]string
	startErr  error
	runErr    error
	exitCode  int
	pipePath  string
	processes []*fakeProcess
}

type fakeProcess struct {
	killed bool
}

func (p *fakeProcess) Kill() error { p.killed = true; return nil }
func (p *fakeProcess) PID() int    { return 4242 }

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (int, error) {
	f.runs = append(f.runs, append([]string{name}, args...))
	return f.exitCode, f.runErr
}

func (f *fakeRunner) Start(_ context.Context, name string, args ...string) (core.Process, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.starts = append(f.starts, append([]string{name}, args...))
	if f.pipePath != "" {
		if err := os.WriteFile(f.pipePath, nil, 0o600); err != nil {
			return nil, err
		}
	}
	p := &fakeProcess{}
	f.processes = append(f.processes, p)
	return p, nil
}

func newTestProducer(t *testing.T, db *fakeDatabase, runner *fakeRunner) *Producer {
	t.Helper()
	dirs := fsutil.NewTempDirRegistry()
	t.Cleanup(dirs.ReleaseAll)
	return &Producer{
		BinDir:           "/out",
		Dirs:             dirs,
		Database:         db,
		Runner:           runner,
		Logger:           logging.NewNop(),
		ReadinessTimeout: 2 * time.Second,
		PollInterval:     5 * time.Millisecond,
	}
}

func TestProduce_DatabaseInitFailureSpawnsNothing(t *testing.T) {
	db := &fakeDatabase{createErr: errors.New("exit status 1")}
	runner := &fakeRunner{}
	p := newTestProducer(t, db, runner)

	_, err := p.Produce(context.Background(), Spec{Target: "crashy_program"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrArtifact(core.CodeDatabaseInitFailed, "")))
	assert.Empty(t, runner.runs)
	assert.Empty(t, runner.starts)
}

func TestProduce_SelfStartingMode(t *testing.T) {
	db := &fakeDatabase{listing: "Path: /db/completed/a.dmp\n"}
	runner := &fakeRunner{exitCode: -1073741819} // access violation, by design
	p := newTestProducer(t, db, runner)

	dump, err := p.Produce(context.Background(), Spec{Target: "crashy_program"})
	require.NoError(t, err)
	assert.Equal(t, "/db/completed/a.dmp", dump)

	// No external handler in this mode.
	assert.Empty(t, runner.starts)
	require.Len(t, runner.runs, 1)
	run := runner.runs[0]
	assert.Equal(t, filepath.Join("/out", "crashy_program"), run[0])
	// Target receives the handler path and the database directory.
	assert.Equal(t, p.handlerPath(), run[1])
	assert.Equal(t, db.created[0], run[2])
}

func TestProduce_ExternalHandlerMode(t *testing.T) {
	pipe := filepath.Join(t.TempDir(), "readiness-pipe")
	db := &fakeDatabase{listing: "   Path:   /db/completed/b.dmp   \n"}
	runner := &fakeRunner{pipePath: pipe}
	p := newTestProducer(t, db, runner)

	dump, err := p.Produce(context.Background(), Spec{
		Target:    "crash_other_program",
		PipeName:  pipe,
		ExtraArgs: []string{"noexception"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/db/completed/b.dmp", dump)

	require.Len(t, runner.starts, 1)
	start := runner.starts[0]
	assert.Equal(t, p.handlerPath(), start[0])
	assert.Equal(t, "--pipe-name="+pipe, start[1])
	assert.Equal(t, "--database="+db.created[0], start[2])

	require.Len(t, runner.runs, 1)
	run := runner.runs[0]
	assert.Equal(t, filepath.Join("/out", "crash_other_program"), run[0])
	assert.Equal(t, []string{pipe, "noexception"}, run[1:])

	// Handler is terminated on the success path.
	require.Len(t, runner.processes, 1)
	assert.True(t, runner.processes[0].killed)
}

func TestProduce_HandlerKilledOnFailurePath(t *testing.T) {
	pipe := filepath.Join(t.TempDir(), "readiness-pipe")
	db := &fakeDatabase{listing: "no reports here\n"}
	runner := &fakeRunner{pipePath: pipe}
	p := newTestProducer(t, db, runner)

	_, err := p.Produce(context.Background(), Spec{Target: "crashy_program", PipeName: pipe})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrArtifact(core.CodeNoArtifactFound, "")))

	require.Len(t, runner.processes, 1)
	assert.True(t, runner.processes[0].killed)
}

func TestProduce_ReadinessTimeout(t *testing.T) {
	// Handler starts but never creates the pipe.
	db := &fakeDatabase{}
	runner := &fakeRunner{}
	p := newTestProducer(t, db, runner)
	p.ReadinessTimeout = 30 * time.Millisecond

	_, err := p.Produce(context.Background(), Spec{
		Target:   "crashy_program",
		PipeName: filepath.Join(t.TempDir(), "never-created"),
	})
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatTimeout))

	// Target never ran; handler was still cleaned up.
	assert.Empty(t, runner.runs)
	require.Len(t, runner.processes, 1)
	assert.True(t, runner.processes[0].killed)
}

func TestScanReportListing(t *testing.T) {
	tests := []struct {
		name    string
		listing string
		want    string
	}{
		{"single path", "Path: /a/b.dmp\n", "/a/b.dmp"},
		{"indented with detail", "Report:\n  UUID: x\n  Path: C:\\db\\c.dmp\n  Size: 1\n", "C:\\db\\c.dmp"},
		{"first of several", "Path: /first.dmp\nPath: /second.dmp\n", "/first.dmp"},
		{"marker mid-line ignored", "Some Path: /not-a-field.dmp\n", ""},
		{"no marker", "no completed reports\n", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scanReportListing(tt.listing))
		})
	}
}
