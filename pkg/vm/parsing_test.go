package vm_test

import (
	"testing"

	"github.com/dcbuild3r/nand2tetris/pkg/vm"
)

func parseOne(t *testing.T, lines []string) vm.Operation {
	t.Helper()
	parser := vm.NewParser(lines)
	module, err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse(%v) unexpected error: %s", lines, err)
	}
	if len(module) != 1 {
		t.Fatalf("Parse(%v) = %+v, want exactly 1 operation", lines, module)
	}
	return module[0]
}

func TestParserMemoryOps(t *testing.T) {
	got := parseOne(t, []string{"push constant 17"})
	want := vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 17}
	if got != vm.Operation(want) {
		t.Errorf("got %+v, want %+v", got, want)
	}

	got = parseOne(t, []string{"pop local 3"})
	want = vm.MemoryOp{Operation: vm.Pop, Segment: vm.Local, Offset: 3}
	if got != vm.Operation(want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestParserArithmeticOps(t *testing.T) {
	for _, op := range []vm.ArithOpType{vm.Add, vm.Sub, vm.Neg, vm.Eq, vm.Gt, vm.Lt, vm.And, vm.Or, vm.Not} {
		got := parseOne(t, []string{string(op)})
		want := vm.ArithmeticOp{Operation: op}
		if got != vm.Operation(want) {
			t.Errorf("%s: got %+v, want %+v", op, got, want)
		}
	}
}

func TestParserBranching(t *testing.T) {
	got := parseOne(t, []string{"label LOOP_START"})
	if got != vm.Operation(vm.LabelDecl{Name: "LOOP_START"}) {
		t.Errorf("got %+v, want LabelDecl{LOOP_START}", got)
	}

	got = parseOne(t, []string{"goto END"})
	if got != vm.Operation(vm.GotoOp{Jump: vm.Unconditional, Label: "END"}) {
		t.Errorf("got %+v, want GotoOp{goto, END}", got)
	}

	got = parseOne(t, []string{"if-goto LOOP_START"})
	if got != vm.Operation(vm.GotoOp{Jump: vm.Conditional, Label: "LOOP_START"}) {
		t.Errorf("got %+v, want GotoOp{if-goto, LOOP_START}", got)
	}
}

func TestParserFunctions(t *testing.T) {
	got := parseOne(t, []string{"function Main.fibonacci 2"})
	if got != vm.Operation(vm.FuncDecl{Name: "Main.fibonacci", NLocal: 2}) {
		t.Errorf("got %+v, want FuncDecl{Main.fibonacci, 2}", got)
	}

	got = parseOne(t, []string{"call Main.fibonacci 1"})
	if got != vm.Operation(vm.FuncCallOp{Name: "Main.fibonacci", NArgs: 1}) {
		t.Errorf("got %+v, want FuncCallOp{Main.fibonacci, 1}", got)
	}

	got = parseOne(t, []string{"return"})
	if got != vm.Operation(vm.ReturnOp{}) {
		t.Errorf("got %+v, want ReturnOp{}", got)
	}
}

func TestParserIrregularSpacing(t *testing.T) {
	got := parseOne(t, []string{"push  constant   17"})
	want := vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 17}
	if got != vm.Operation(want) {
		t.Errorf("got %+v, want %+v", got, want)
	}

	got = parseOne(t, []string{"   if-goto    LOOP_START  "})
	if got != vm.Operation(vm.GotoOp{Jump: vm.Conditional, Label: "LOOP_START"}) {
		t.Errorf("got %+v, want GotoOp{if-goto, LOOP_START}", got)
	}
}

func TestParserComments(t *testing.T) {
	module, err := vm.NewParser([]string{
		"// a comment on its own line",
		"push constant 1 // trailing comment",
		"add",
	}).Parse()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(module) != 2 {
		t.Fatalf("got %d operations, want 2 (comment lines produce none)", len(module))
	}
}

func TestParserSyntaxError(t *testing.T) {
	_, err := vm.NewParser([]string{"push nowhere 0"}).Parse()
	if err == nil {
		t.Fatal("expected a syntax error for an unknown segment, got nil")
	}
	if _, ok := err.(*vm.SyntaxError); !ok {
		t.Fatalf("error = %T, want *vm.SyntaxError", err)
	}
}
