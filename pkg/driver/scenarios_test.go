package driver

import (
	"os"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type scenario struct {
	Name      string   `yaml:"name"`
	Input     string   `yaml:"input"`
	ExpectTAC []string `yaml:"expect_tac"`
	ExpectASM []string `yaml:"expect_asm"`
	Skip      string   `yaml:"skip"`
}

type scenarioFile struct {
	Tests []scenario `yaml:"tests"`
}

// TestScenariosYAML runs the end-to-end scenarios recorded in
// testdata/scenarios.yaml.
func TestScenariosYAML(t *testing.T) {
	data, err := os.ReadFile("../../testdata/scenarios.yaml")
	if err != nil {
		t.Fatalf("failed to read scenarios.yaml: %v", err)
	}

	var f scenarioFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		t.Fatalf("failed to parse scenarios.yaml: %v", err)
	}
	if len(f.Tests) == 0 {
		t.Fatal("expected at least one scenario")
	}

	for _, tc := range f.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			if tc.Skip != "" {
				t.Skip(tc.Skip)
			}

			r := Compile(tc.Input)
			if diag := diagErrors(r); diag != "" {
				t.Fatalf("unexpected diagnostics: %s\nraw tac:\n%s", diag, r.RawTACText)
			}

			for _, want := range tc.ExpectTAC {
				if !strings.Contains(r.RawTACText, want) {
					t.Errorf("expected raw TAC to contain %q, got:\n%s", want, r.RawTACText)
				}
			}
			for _, want := range tc.ExpectASM {
				if !strings.Contains(r.ASMText, want) {
					t.Errorf("expected assembly to contain %q, got:\n%s", want, r.ASMText)
				}
			}
		})
	}
}
