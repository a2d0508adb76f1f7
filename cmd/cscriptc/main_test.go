package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	if version == "" {
		t.Error("version should not be empty")
	}
}

func TestDebugFlagsExist(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)

	for _, flagName := range []string{"dparse", "dsema", "dtac", "dopt", "dquads", "dasm"} {
		if cmd.Flags().Lookup(flagName) == nil {
			t.Errorf("expected flag --%s to exist", flagName)
		}
	}
}

func resetDebugFlags() {
	dParse = false
	dSema = false
	dTAC = false
	dOpt = false
	dQuads = false
	dAsm = false
}

func writeTempSource(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.cs")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test source: %v", err)
	}
	return path
}

func TestNoDebugFlagsPrintsCompiledLine(t *testing.T) {
	resetDebugFlags()
	file := writeTempSource(t, `let x: integer = 1;`)

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{file})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out.String(), "compiled "+file) {
		t.Errorf("expected a confirmation line, got %q", out.String())
	}
}

func TestDParseFlagDumpsAST(t *testing.T) {
	resetDebugFlags()
	file := writeTempSource(t, `let x: integer = 1;`)

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"--dparse", file})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out.String(), "x") {
		t.Errorf("expected the AST dump to mention the declared name, got %q", out.String())
	}
}

func TestDAsmFlagDumpsAssembly(t *testing.T) {
	resetDebugFlags()
	file := writeTempSource(t, `let x: integer = 2 + 3 * 4; print(x);`)

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"--dasm", file})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out.String(), ".text") {
		t.Errorf("expected the assembly dump to contain a .text section, got %q", out.String())
	}
}

func TestDiagnosticsReportedOnParseError(t *testing.T) {
	resetDebugFlags()
	file := writeTempSource(t, `let x: integer = ;`)

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{file})
	err := cmd.Execute()
	if err == nil {
		t.Fatalf("expected an error for a source with parse diagnostics")
	}
	if errOut.Len() == 0 {
		t.Errorf("expected diagnostics written to stderr")
	}
}

func TestMissingFileReportsError(t *testing.T) {
	resetDebugFlags()

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"--dparse", "nonexistent.cs"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error for nonexistent file, got nil")
	}
}
