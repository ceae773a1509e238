package vmtest_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristoferb/lox/internal/natives"
	"github.com/kristoferb/lox/internal/vm"
	"github.com/kristoferb/lox/internal/vmtest"
)

// TestScripts runs every testdata/*.lox program end to end and diffs its
// stdout (or, for scripts meant to fail, its formatted error) against the
// sibling .want golden file (spec §8's end-to-end scenarios).
func TestScripts(t *testing.T) {
	for _, path := range vmtest.ScriptFiles(t, "testdata") {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			got := vmtest.Run(t, path)
			vmtest.Golden(t, path, got)
		})
	}
}

// TestGCStressParity implements spec §8 property 6: running with stress-GC
// enabled must produce byte-identical output to running without it.
func TestGCStressParity(t *testing.T) {
	for _, path := range vmtest.ScriptFiles(t, "testdata") {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			source, err := os.ReadFile(path)
			require.NoError(t, err)

			var normal bytes.Buffer
			vmNormal := vm.New(&normal)
			natives.Install(vmNormal)
			_, _ = vmNormal.Interpret(source)

			var stressed bytes.Buffer
			vmStressed := vm.New(&stressed)
			natives.Install(vmStressed)
			vmStressed.SetStress(true)
			_, _ = vmStressed.Interpret(source)

			require.Equal(t, normal.String(), stressed.String())
		})
	}
}
