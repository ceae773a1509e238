// Package vmtest is the end-to-end golden-file test harness for the
// interpreter: run a .lox script through a fresh VM, capture its stdout,
// and diff it against a checked-in .want file, failing with a readable
// patch on mismatch. Adapted from nenuphar's internal/filetest (same
// file-discovery-plus-diff shape, same kylelemons/godebug/diff dependency)
// but narrowed to this package's one concern: running lox source and
// comparing process-level output, rather than the general "diff against
// any golden extension" utility filetest offered for AST/token dumps.
package vmtest

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/kylelemons/godebug/diff"

	"github.com/kristoferb/lox/internal/lox"
	"github.com/kristoferb/lox/internal/natives"
	"github.com/kristoferb/lox/internal/vm"
)

var updateGolden = flag.Bool("test.update-golden", false, "If set, overwrite .want files with actual output.")

// ScriptFiles returns every *.lox file directly inside dir, sorted by
// os.ReadDir's default (lexical) order.
func ScriptFiles(t *testing.T, dir string) []string {
	t.Helper()
	dents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var files []string
	for _, dent := range dents {
		if dent.Type().IsRegular() && filepath.Ext(dent.Name()) == ".lox" {
			files = append(files, filepath.Join(dir, dent.Name()))
		}
	}
	return files
}

// Run compiles and executes the script at path on a freshly constructed VM
// (natives installed, matching a real `lox run`), returning everything
// written to stdout. It never returns a Go error: compile/runtime failures
// are captured in the returned text exactly as a user running `lox run`
// would see them on stderr, concatenated after stdout, since golden files
// in this package assert on the combined transcript.
func Run(t *testing.T, path string) string {
	t.Helper()
	source, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	machine := vm.New(&out)
	natives.Install(machine)

	result, err := machine.Interpret(source)
	switch result {
	case lox.CompileError:
		out.WriteString(err.Error() + "\n")
	case lox.RuntimeError:
		if re, ok := err.(*lox.RuntimeErr); ok {
			out.WriteString(re.Format())
		} else if err != nil {
			out.WriteString(err.Error() + "\n")
		}
	}
	return out.String()
}

// Golden diffs got against the .want file sibling to the script at path
// (same basename, .want extension), updating it in place when
// -test.update-golden is passed.
func Golden(t *testing.T, path, got string) {
	t.Helper()
	wantPath := path[:len(path)-len(filepath.Ext(path))] + ".want"

	if *updateGolden {
		if err := os.WriteFile(wantPath, []byte(got), 0o600); err != nil {
			t.Fatal(err)
		}
		return
	}

	wantb, err := os.ReadFile(wantPath)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	want := string(wantb)
	if patch := diff.Diff(want, got); patch != "" {
		t.Errorf("diff (-want +got):\n%s", patch)
	}
}
