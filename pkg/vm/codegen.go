package vm

import "fmt"

// ----------------------------------------------------------------------------
// Code Generator

// CodeGenerator is the inverse of Parser: it renders a vm.Program back to VM
// source text. The main translation pipeline never calls it (cmd/vm_translator
// lowers straight to Assembler); it exists for tooling that wants to
// normalize or pretty-print a parsed Program.
type CodeGenerator struct {
	program Program
}

// NewCodeGenerator wraps the Program to be rendered.
func NewCodeGenerator(p Program) CodeGenerator {
	return CodeGenerator{program: p}
}

// Generate renders every module back to VM source lines, keyed by module
// name, preserving each module's operation order.
func (cg *CodeGenerator) Generate() (map[string][]string, error) {
	rendered := make(map[string][]string, len(cg.program))

	for name, module := range cg.program {
		lines := make([]string, 0, len(module))
		for _, operation := range module {
			line, err := cg.render(operation)
			if err != nil {
				return nil, err
			}
			lines = append(lines, line)
		}
		rendered[name] = lines
	}

	return rendered, nil
}

func (cg *CodeGenerator) render(operation Operation) (string, error) {
	switch concrete := operation.(type) {
	case MemoryOp:
		return cg.GenerateMemoryOp(concrete)
	case ArithmeticOp:
		return cg.GenerateArithmeticOp(concrete)
	case LabelDecl:
		return cg.GenerateLabelDecl(concrete)
	case GotoOp:
		return cg.GenerateGotoOp(concrete)
	case FuncDecl:
		return cg.GenerateFuncDecl(concrete)
	case ReturnOp:
		return cg.GenerateReturnOp(concrete)
	case FuncCallOp:
		return cg.GenerateFuncCallOp(concrete)
	default:
		return "", fmt.Errorf("no VM text rendering for operation %T", operation)
	}
}

// GenerateMemoryOp renders "push|pop segment offset", rejecting offsets past
// the real segments that have a hard upper bound (temp has 8 cells,
// pointer has 2).
func (cg *CodeGenerator) GenerateMemoryOp(op MemoryOp) (string, error) {
	switch {
	case op.Segment == Pointer && op.Offset > 1:
		return "", fmt.Errorf("'pointer' segment only covers offsets 0-1, got %d", op.Offset)
	case op.Segment == Temp && op.Offset > 7:
		return "", fmt.Errorf("'temp' segment only covers offsets 0-7, got %d", op.Offset)
	default:
		return fmt.Sprintf("%s %s %d", op.Operation, op.Segment, op.Offset), nil
	}
}

// GenerateArithmeticOp renders the bare operation keyword (e.g. "add").
func (cg *CodeGenerator) GenerateArithmeticOp(op ArithmeticOp) (string, error) {
	return string(op.Operation), nil
}

// GenerateLabelDecl renders "label name".
func (cg *CodeGenerator) GenerateLabelDecl(op LabelDecl) (string, error) {
	return namedLine("label", op.Name)
}

// GenerateGotoOp renders "goto name" or "if-goto name".
func (cg *CodeGenerator) GenerateGotoOp(op GotoOp) (string, error) {
	return namedLine(string(op.Jump), op.Label)
}

// GenerateFuncDecl renders "function name nLocal".
func (cg *CodeGenerator) GenerateFuncDecl(op FuncDecl) (string, error) {
	if op.Name == "" {
		return "", fmt.Errorf("function declaration is missing its name")
	}
	return fmt.Sprintf("function %s %d", op.Name, op.NLocal), nil
}

// GenerateFuncCallOp renders "call name nArgs".
func (cg *CodeGenerator) GenerateFuncCallOp(op FuncCallOp) (string, error) {
	if op.Name == "" {
		return "", fmt.Errorf("function call is missing its target name")
	}
	return fmt.Sprintf("call %s %d", op.Name, op.NArgs), nil
}

// GenerateReturnOp renders the bare "return" keyword.
func (cg *CodeGenerator) GenerateReturnOp(op ReturnOp) (string, error) {
	return "return", nil
}

// namedLine renders a "keyword name" line, shared by label declarations and
// branch targets: both require a non-empty name.
func namedLine(keyword, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%s is missing its target name", keyword)
	}
	return fmt.Sprintf("%s %s", keyword, name), nil
}
