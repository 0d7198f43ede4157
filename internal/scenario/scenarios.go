package scenario

import (
	"context"
	"strings"
)

// exceptionOfInterest is cdb's banner for a dump with a stored exception.
const exceptionOfInterest = "This dump file has an exception of interest stored in it"

// crashyFunctionLocation matches SomeCrashyFunction's frame. When the
// function is inlined, cdb doesn't demangle its namespace as
// "`anonymous namespace'" and gives the decorated form instead.
const crashyFunctionLocation = "crashy_program!crashpad::(`anonymous namespace'|\\?A0x[0-9a-f]+)::SomeCrashyFunction"

type scenarioDef struct {
	name    string
	enabled bool
	run     func(ctx context.Context, r *Runner, d Dumps)
}

// suite is the fixed scenario list, run in order. Each scenario opens its
// own debugger session(s) so output from one command can't be confused for
// another's.
func suite() []scenarioDef {
	return []scenarioDef{
		{name: "exception", enabled: true, run: runException},
		{name: "exception-start-handler", enabled: true, run: runExceptionStartHandler},
		{name: "peb", enabled: true, run: runPeb},
		{name: "teb", enabled: true, run: runTeb},
		{name: "last-error", enabled: true, run: runLastError},
		// Needs ntdll!RtlCriticalSectionList capture; flaky until then.
		{name: "locks", enabled: false, run: runLocks},
		{name: "handles", enabled: true, run: runHandles},
		{name: "unloaded-modules", enabled: true, run: runUnloadedModules},
		{name: "self-destroyed-stack", enabled: true, run: runSelfDestroyedStack},
		{name: "suspended-thread-memory", enabled: true, run: runSuspendedThreadMemory},
		{name: "stack-memory", enabled: true, run: runStackMemory},
		{name: "extra-memory", enabled: true, run: runExtraMemory},
		// Flakily captures too much memory in Debug builds, possibly via a
		// stale pointer on the stack.
		{name: "extra-memory-not-saved", enabled: false, run: runExtraMemoryNotSaved},
		{name: "user-streams", enabled: true, run: runUserStreams},
		{name: "z7-loader", enabled: true, run: runZ7},
		{name: "other-program", enabled: true, run: runOtherProgram},
		{name: "other-program-no-exception", enabled: true, run: runOtherProgramNoException},
	}
}

func runException(ctx context.Context, r *Runner, d Dumps) {
	out := r.open(ctx, "exception", d.Crashy, ".ecxr")
	if out == nil {
		return
	}
	out.Check(exceptionOfInterest, "captured exception", 0)
	out.Check(crashyFunctionLocation, "exception at correct location", 0)
}

func runExceptionStartHandler(ctx context.Context, r *Runner, d Dumps) {
	out := r.open(ctx, "exception-start-handler", d.StartHandler, ".ecxr")
	if out == nil {
		return
	}
	out.Check(exceptionOfInterest, "captured exception (using StartHandler())", 0)
	out.Check(crashyFunctionLocation, "exception at correct location (using StartHandler())", 0)
}

func runPeb(ctx context.Context, r *Runner, d Dumps) {
	out := r.open(ctx, "peb", d.Crashy, "!peb")
	if out == nil {
		return
	}
	out.Check(`PEB at`, "found the PEB", 0)
	out.Check(`Ldr\.InMemoryOrderModuleList:.*\d+ \. \d+`, "PEB_LDR_DATA saved", 0)
	out.Check(`Base TimeStamp                     Module`, "module list present", 0)
	escapedPipe := strings.ReplaceAll(r.PipeName, `\`, `\\`)
	out.Check(`CommandLine: *'.*crashy_program.exe *`+escapedPipe, "some PEB data is correct", 0)
	out.Check(`SystemRoot=C:\\Windows`, "some of environment captured", IgnoreCase)
}

func runTeb(ctx context.Context, r *Runner, d Dumps) {
	out := r.open(ctx, "teb", d.Crashy, "!teb")
	if out == nil {
		return
	}
	out.Check(`TEB at`, "found the TEB", 0)
	out.Check(`ExceptionList:\s+[0-9a-fA-F]+`, "some valid teb data", 0)
	out.Check(`LastErrorValue:\s+2`, "correct LastErrorValue", 0)
}

func runLastError(ctx context.Context, r *Runner, d Dumps) {
	out := r.open(ctx, "last-error", d.Crashy, "!gle")
	if out == nil {
		return
	}
	out.Check(`LastErrorValue: \(Win32\) 0x2 \(2\) - The system cannot find the file specified.`,
		"!gle gets last error", 0)
	out.Check(`LastStatusValue: \(NTSTATUS\) 0xc000000f - \{File Not Found\}  The file %hs does not exist.`,
		"!gle gets last ntstatus", 0)
}

func runLocks(ctx context.Context, r *Runner, d Dumps) {
	out := r.open(ctx, "locks", d.Crashy, "!locks")
	if out == nil {
		return
	}
	out.Check("CritSec crashy_program!crashpad::`anonymous namespace'::g_test_critical_section",
		"lock was captured", 0)
	out.Check(`\*\*\* Locked`, "lock debug info was captured, and is locked", 0)
}

func runHandles(ctx context.Context, r *Runner, d Dumps) {
	out := r.open(ctx, "handles", d.Crashy, "!handle")
	if out == nil {
		return
	}
	out.Check(`\d+ Handles`, "captured handles", 0)
	out.Check(`Event\s+\d+`, "capture some event handles", 0)
	out.Check(`File\s+\d+`, "capture some file handles", 0)
}

func runUnloadedModules(ctx context.Context, r *Runner, d Dumps) {
	out := r.open(ctx, "unloaded-modules", d.Crashy, "lm")
	if out == nil {
		return
	}
	out.Check(`Unloaded modules:`, "captured some unloaded modules", 0)
	out.Check(`lz32\.dll`, "found expected unloaded module lz32", 0)
	out.Check(`wmerror\.dll`, "found expected unloaded module wmerror", 0)
}

func runSelfDestroyedStack(ctx context.Context, r *Runner, d Dumps) {
	out := r.open(ctx, "self-destroyed-stack", d.SelfDestroyed, ".ecxr;!peb;k 2")
	if out == nil {
		return
	}
	out.Check(`Ldr\.InMemoryOrderModuleList:.*\d+ \. \d+`, "PEB_LDR_DATA saved", 0)
	out.Check(`ntdll\.dll`, "ntdll present", IgnoreCase)

	// The top frame is identifiable from the IP alone, but the stack
	// itself was freed before the break, so no further frames may appear:
	// cdb's quit must directly follow the frame line.
	out.Check("self_destroying_program!crashpad::`anonymous namespace'::FreeOwnStackAndBreak.*\\nquit:",
		"at correct location, no additional stack entries", 0)
}

func runSuspendedThreadMemory(ctx context.Context, r *Runner, d Dumps) {
	// The suspended background thread's index depends on how many threads
	// the system started, so discover it first, then dump the memory its
	// EDI points at in a dependent session.
	out := r.open(ctx, "suspended-thread-memory", d.Crashy, ".ecxr;~")
	if out == nil {
		return
	}
	if m := out.Find(`(\d+)\s+Id: [0-9a-f.]+ Suspend: 1 Teb:`, 0); m != nil {
		thread := m[1]
		if next := r.open(ctx, "suspended-thread-memory", d.Crashy, ".ecxr;~"+thread+"s;db /c14 edi"); next != nil {
			out = next
		}
	}
	out.Check(`63 62 61 60 5f 5e 5d 5c-5b 5a 59 58 57 56 55 54 53 52 51 50`,
		"data pointed to by registers captured", 0)
}

func runStackMemory(ctx context.Context, r *Runner, d Dumps) {
	// Move up one frame from the exception and examine the words a stack
	// slot points at.
	out := r.open(ctx, "stack-memory", d.Crashy, ".ecxr; .f+; dd /c100 poi(offset_pointer)-20")
	if out == nil {
		return
	}
	out.Check(`80000078 00000079 8000007a 0000007b 8000007c 0000007d 8000007e `+
		`0000007f 80000080 00000081 80000082 00000083 80000084 00000085 `+
		`80000086 00000087 80000088 00000089 8000008a 0000008b 8000008c `+
		`0000008d 8000008e 0000008f 80000090 00000091 80000092 00000093 `+
		`80000094 00000095 80000096 00000097`,
		"data pointed to by stack captured", 0)
}

func runExtraMemory(ctx context.Context, r *Runner, d Dumps) {
	out := r.open(ctx, "extra-memory", d.Crashy,
		"dd poi(crashy_program!crashpad::g_extra_memory_pointer)+0x1f30 L8")
	if out == nil {
		return
	}
	out.Check(`0000655e 0000656b 00006578 00006585`, "extra memory range captured", 0)
	out.Check(`\?\?\?\?\?\?\?\? \?\?\?\?\?\?\?\? \?\?\?\?\?\?\?\? \?\?\?\?\?\?\?\?`,
		"  and not memory after range", 0)
}

func runExtraMemoryNotSaved(ctx context.Context, r *Runner, d Dumps) {
	// Only the pointer is saved, not the pointed-to data: if the pointer
	// itself were missing, no memory would print at all, so unsaved words
	// here confirm the pointer survived while the memory did not.
	out := r.open(ctx, "extra-memory-not-saved", d.Crashy,
		"dd poi(crashy_program!crashpad::g_extra_memory_not_saved)+0x1f30 L4")
	if out == nil {
		return
	}
	out.Check(`\?\?\?\?\?\?\?\? \?\?\?\?\?\?\?\? \?\?\?\?\?\?\?\? \?\?\?\?\?\?\?\?`,
		"extra memory removal", 0)
}

func runUserStreams(ctx context.Context, r *Runner, d Dumps) {
	out := r.open(ctx, "user-streams", d.Crashy, ".dumpdebug")
	if out == nil {
		return
	}
	out.Check(`type \?\?\? \(333333\), size 00001000`, "first user stream", 0)
	out.Check(`type \?\?\? \(222222\), size 00000080`, "second user stream", 0)
}

func runZ7(ctx context.Context, r *Runner, d Dumps) {
	if d.Z7 == "" {
		r.Logger.Debug("scenario: no z7 dump for this bin dir")
		return
	}
	out := r.open(ctx, "z7-loader", d.Z7, ".ecxr;lm")
	if out == nil {
		return
	}
	out.Check(exceptionOfInterest, "captured exception in z7 module", 0)
	// Older cdb versions display relative to exports for /Z7 modules,
	// newer ones just display the offset.
	out.Check(`z7_test(!CrashMe\+0xe|\+0x100e):`, "exception in z7 at correct location", 0)
	out.Check(`z7_test  C \(codeview symbols\)     z7_test.dll`, "expected non-pdb symbol format", 0)
}

func runOtherProgram(ctx context.Context, r *Runner, d Dumps) {
	out := r.open(ctx, "other-program", d.Other, ".ecxr;k;~")
	if out == nil {
		return
	}
	out.Check("Unknown exception - code deadbea7", "other program dump exception code", 0)
	out.Check("!Sleep", "other program reasonable location", 0)
	out.Check("hanging_program!Thread1", "other program dump right thread", 0)

	// Every thread in the other process must have been resumed after the
	// dump was taken; walk the thread list and require suspend count 0
	// throughout, with more than two threads present.
	count := 0
	for {
		m := out.Find(`Id.*Suspend: (\d+) `, 0)
		if m == nil {
			break
		}
		if m[1] != "0" {
			out.Check(`FAILED`, "all suspend counts should be 0", 0)
		} else {
			count++
		}
	}
	if count <= 2 {
		r.Recorder.Fail("more than two threads in other program",
			`Id.*Suspend: (\d+) `, out.Remaining())
	}
}

func runOtherProgramNoException(ctx context.Context, r *Runner, d Dumps) {
	out := r.open(ctx, "other-program-no-exception", d.OtherNoException, ".ecxr;k")
	if out == nil {
		return
	}
	out.Check("Unknown exception - code 0cca11ed", "other program with no exception given", 0)
	out.Check("!RaiseException", "other program in RaiseException()", 0)
}

// Names returns the stable scenario names, for skip-list validation.
func Names() []string {
	defs := suite()
	names := make([]string, len(defs))
	for i, sc := range defs {
		names[i] = sc.name
	}
	return names
}
