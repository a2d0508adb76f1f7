package tacgen

import (
	"strings"
	"testing"

	"github.com/compiscript/ccc/pkg/lexer"
	"github.com/compiscript/ccc/pkg/parser"
	"github.com/compiscript/ccc/pkg/sema"
	"github.com/compiscript/ccc/pkg/tac"
)

func generate(t *testing.T, src string) []tac.Quad {
	t.Helper()
	l := lexer.New(src)
	prog, errs := parser.ParseProgram(l)
	if len(errs) > 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	res := sema.Analyze(prog)
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected sema errors: %v", res.Diags.Strings())
	}
	return Generate(prog, res)
}

func text(quads []tac.Quad) string {
	var b strings.Builder
	tac.NewPrinter(&b).PrintQuads(quads)
	return b.String()
}

func TestGenerateArithmeticAssignment(t *testing.T) {
	out := text(generate(t, `let x: integer = 2 + 3 * 4;`))
	if !strings.Contains(out, "BeginFunc main 4") {
		t.Fatalf("expected a main entry point sized for one local, got:\n%s", out)
	}
	if !strings.Contains(out, " * ") || !strings.Contains(out, " + ") {
		t.Fatalf("expected both an add and a multiply quad, got:\n%s", out)
	}
	if !strings.Contains(out, "x = t") {
		t.Fatalf("expected the declared local to be assigned from a temp, got:\n%s", out)
	}
}

func TestGenerateFunctionHasParamLoads(t *testing.T) {
	out := text(generate(t, `
function suma(a: integer, b: integer): integer {
  return a + b;
}
print(suma(1, 2));`))
	if !strings.Contains(out, "BeginFunc suma 0") {
		t.Fatalf("expected BeginFunc suma, got:\n%s", out)
	}
	if !strings.Contains(out, "p_a = LoadParam 0") || !strings.Contains(out, "p_b = LoadParam 1") {
		t.Fatalf("expected LoadParam quads for both formals, got:\n%s", out)
	}
	if !strings.Contains(out, "return t") {
		t.Fatalf("expected the return value to come from a temp holding a + b, got:\n%s", out)
	}
}

func TestGenerateIfElseBranches(t *testing.T) {
	out := text(generate(t, `
let x: integer = 1;
if (x > 0) {
  print(x);
} else {
  print(0);
}`))
	ifzCount := strings.Count(out, "IfZ ")
	if ifzCount < 1 {
		t.Fatalf("expected at least one IfZ quad, got:\n%s", out)
	}
	if !strings.Contains(out, "Goto L") {
		t.Fatalf("expected a Goto past the else branch, got:\n%s", out)
	}
}

func TestGenerateWhileLoopHasBackEdge(t *testing.T) {
	out := text(generate(t, `
let i: integer = 0;
while (i < 5) {
  i = i + 1;
}`))
	var head string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if strings.HasSuffix(line, ":") {
			head = strings.TrimSuffix(line, ":")
			break
		}
	}
	if head == "" {
		t.Fatalf("expected a label marking the loop head, got:\n%s", out)
	}
	if !strings.Contains(out, "Goto "+head) {
		t.Fatalf("expected a back-edge Goto to the loop head %q, got:\n%s", head, out)
	}
}

func TestGenerateBreakJumpsPastLoop(t *testing.T) {
	out := text(generate(t, `
let i: integer = 0;
while (i < 5) {
  if (i == 2) {
    break;
  }
  i = i + 1;
}`))
	if strings.Count(out, "Goto L") < 2 {
		t.Fatalf("expected at least two Goto quads (back-edge plus break), got:\n%s", out)
	}
}

func TestGenerateLogicalAndShortCircuits(t *testing.T) {
	out := text(generate(t, `
let a: boolean = true;
let b: boolean = false;
let c: boolean = a && b;`))
	if !strings.Contains(out, "c = t") {
		t.Fatalf("expected c to be assigned from the logical result temp, got:\n%s", out)
	}
	if strings.Count(out, "IfZ ") < 2 {
		t.Fatalf("expected one IfZ per operand of the && chain, got:\n%s", out)
	}
}

func TestGenerateClassConstructorAndMethod(t *testing.T) {
	out := text(generate(t, `
class Persona {
  let nombre: string;
  constructor(nombre: string) {
    this.nombre = nombre;
  }
  function saludar(): void {
    printString(this.nombre);
  }
}
let p: Persona = new Persona("Ada");
p.saludar();`))
	if !strings.Contains(out, "BeginFunc constructor 0") {
		t.Fatalf("expected a constructor entry point, got:\n%s", out)
	}
	if !strings.Contains(out, "this = LoadParam 1") {
		t.Fatalf("expected the constructor to load `this` after its one declared param, got:\n%s", out)
	}
	if !strings.Contains(out, "setprop this, nombre, p_nombre") {
		t.Fatalf("expected a setprop for the field assignment, got:\n%s", out)
	}
	if !strings.Contains(out, "= new Persona") {
		t.Fatalf("expected a New quad for the constructor call, got:\n%s", out)
	}
	if !strings.Contains(out, "call method constructor, 2") {
		t.Fatalf("expected the constructor call to carry the receiver as its last argument, got:\n%s", out)
	}
	if !strings.Contains(out, "call method saludar, 1") {
		t.Fatalf("expected the method call to carry just the receiver, got:\n%s", out)
	}
	if !strings.Contains(out, "BeginFunc saludar 0") {
		t.Fatalf("expected a saludar entry point, got:\n%s", out)
	}
}

func TestGenerateDefaultConstructorSynthesized(t *testing.T) {
	out := text(generate(t, `
class Vacio {
  let n: integer;
}
let v: Vacio = new Vacio();`))
	if !strings.Contains(out, "BeginFunc constructor 0") {
		t.Fatalf("expected a synthesized empty constructor, got:\n%s", out)
	}
}

func TestGenerateSameScopeRenameUsesResolvedName(t *testing.T) {
	out := text(generate(t, `
let x: integer = 1;
let x: integer = 2;`))
	if !strings.Contains(out, "x = 1") || !strings.Contains(out, "x_local = 2") {
		t.Fatalf("expected the second declaration to target the renamed symbol, got:\n%s", out)
	}
}

func TestGenerateConstructorAutoWiresFieldsFromParams(t *testing.T) {
	out := text(generate(t, `
class Persona {
  let nombre: string;
  constructor(nombre: string) {
  }
}
let p: Persona = new Persona("Ada");`))
	if !strings.Contains(out, "setprop this, nombre, p_nombre") {
		t.Fatalf("expected the constructor to auto-wire its parameter into the same-named field, got:\n%s", out)
	}
}

func TestGenerateBareFieldReferenceLowersToThis(t *testing.T) {
	out := text(generate(t, `
class Contador {
  let valor: integer;
  constructor(valor: integer) {
    this.valor = valor;
  }
  function incrementar(): void {
    valor = valor + 1;
  }
}`))
	if !strings.Contains(out, "getprop this, valor") {
		t.Fatalf("expected the bare read of 'valor' to lower to getprop this, valor, got:\n%s", out)
	}
	if !strings.Contains(out, "setprop this, valor,") {
		t.Fatalf("expected the bare write to 'valor' to lower to setprop this, valor, got:\n%s", out)
	}
}

func TestGenerateSwitchFallsThroughCases(t *testing.T) {
	out := text(generate(t, `
let x: integer = 1;
switch (x) {
  case 1:
    print(1);
  case 2:
    print(2);
  default:
    print(0);
}`))
	if strings.Count(out, "= x ==") == 0 {
		t.Fatalf("expected an equality comparison per non-default case, got:\n%s", out)
	}
	if !strings.Contains(out, "Goto L") {
		t.Fatalf("expected a default/end dispatch Goto, got:\n%s", out)
	}
}
