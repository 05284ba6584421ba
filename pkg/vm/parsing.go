package vm

import (
	"fmt"
	"strconv"

	pc "github.com/prataprc/goparsec"
)

// ----------------------------------------------------------------------------
// Syntax errors

// SyntaxError reports the unrecognized VM command or segment name that aborted
// translation. Per the REDESIGN FLAG this is surfaced as a diagnostic instead
// of being embedded as an "error: ..." marker string in the generated output.
type SyntaxError struct {
	Detail string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("VM translation failed: %s", e.Detail)
}

// ----------------------------------------------------------------------------
// Parser Combinator(s)

// This section defines the Parser Combinator for every token & instruction of the Vm language.
//
// Each parser combinator either manages an operation (MemoryOp, ArithmeticOp, ...) or some pieces
// of it: namely tokens and identifiers. Also we manage comments inside the codebase that can
// either present themselves at the beginning of the line or in the middle.
//
// Unlike the Assembler stage (lexer.go's Clean), there's no separate whitespace-collapsing
// step here: every terminal combinator below (pc.Atom, pc.Token, pc.Int) skips leading
// whitespace itself before matching, so "push  constant   17" and "push constant 17" parse
// identically without the VM grammar ever looking at how many spaces separated the tokens.

// Top level object, will generate the traversable AST based on the input plus the PCs below.
var ast = pc.NewAST("virtual_machine", 0)

var (
	// Parser combinator for a VM module/class, in the nand2tetris VM there's a Java like
	// behavior where a program is composed of multiple '.vm' file ('.class' in Java) where
	// each contains the bytecode for the specific module/class (a separate translation unit).
	pModule = ast.ManyUntil("module", nil, ast.OrdChoice("node", nil, pComment, pOperation), pc.End())

	// Parser combinator for comments in a VM program
	pComment = ast.And("comment", nil, pc.Atom("//", "//"), pc.Token(`(?m).*$`, "COMMENT"))
	// Parser combinator for a generic VM operation (MemoryOp, ArithmeticOp, ...)
	pOperation = ast.OrdChoice("operation", nil,
		// Stack operation + label and jump operations
		pMemoryOp, pArithmeticOp, pLabelDecl, pGotoOp,
		// Function related operations and statements
		pFuncDecl, pFunCallOp, pReturnOp,
	)

	// Memory operation, compliant with the following syntax: "{push|pop} {segment} {index}"
	pMemoryOp = ast.And("memory_op", nil, pMemOpType, pSegment, pc.Int())
	// Arithmetic operation, could either be binary or unary (modifies only the Stack Pointer)
	pArithmeticOp = ast.And("arithmetic_op", nil, pArithOpType)

	// Label declaration, compliant with the following syntax: "label {symbol}"s
	pLabelDecl = ast.And("label_decl", nil, pc.Atom("label", "LABEL"), pIdent)
	// Jump operation, compliant with the following syntax: "{if-goto|goto} {symbol}"
	pGotoOp = ast.And("goto_op", nil, pJumpType, pIdent)

	// Function declaration, compliant with the following syntax: "function {name} {n_locals}"
	pFuncDecl = ast.And("func_decl", nil, pc.Atom("function", "FUNC"), pIdent, pc.Int())
	// Function call operation, compliant with the following syntax: "call {name} {n_args}"
	pFunCallOp = ast.And("func_call", nil, pc.Atom("call", "CALL"), pIdent, pc.Int())
	// Return operation, compliant with the following syntax: "return"
	pReturnOp = ast.And("return_op", nil, pc.Atom("return", "RETURN"))
)

var (
	// Generic Identifier parser (for label and function declaration)
	// NOTE: An ident can be any sequence of letters, digits, and symbols (_, ., $, :).
	// NOTE: An ident cannot begin with a leading digit (a symbol is indeed allowed).
	pIdent = pc.Token(`[A-Za-z_.$:][0-9a-zA-Z_.$:]*`, "IDENT")

	// Available memory operation type (only push and pop since it's stack based)
	pMemOpType = ast.OrdChoice("mem_op_type", nil, pc.Atom("push", "PUSH"), pc.Atom("pop", "POP"))
	// Available heap segments (they act as registers and are used alongside the stack)
	pSegment = ast.OrdChoice("mem_segment", nil,
		pc.Atom("argument", "ARGUMENT"), pc.Atom("local", "LOCAL"),
		pc.Atom("static", "STATIC"), pc.Atom("constant", "CONSTANT"),
		pc.Atom("this", "THIS"), pc.Atom("that", "THAT"),
		pc.Atom("temp", "TEMP"), pc.Atom("pointer", "POINTER"),
	)

	// Available arithmetic operation types (more functionality will be provided in the next phases)
	pArithOpType = ast.OrdChoice("operations", nil,
		// Comparison operations available on the VM bytecode
		pc.Atom("eq", "EQ"), pc.Atom("gt", "GT"), pc.Atom("lt", "LT"),
		// Arithmetic operations available on the VM bytecode
		pc.Atom("add", "ADD"), pc.Atom("sub", "SUB"), pc.Atom("neg", "NEG"),
		// Bit-a-bit operations available on the VM bytecode
		pc.Atom("not", "NOT"), pc.Atom("and", "AND"), pc.Atom("or", "OR"),
	)

	// Jump types can either be conditional (if-goto) or unconditional (goto).
	pJumpType = ast.OrdChoice("jump_type", nil, pc.Atom("goto", "GOTO"), pc.Atom("if-goto", "IF-GOTO"))
)

// ----------------------------------------------------------------------------
// Vm Parser

// This section defines the Parser for the nand2tetris Vm language.
//
// It uses parser combinators to obtain the AST from the raw source lines (joined and
// parsed as one module, so errors carry no line number), then
// walks the resulting tree turning each recognized subtree into its 'vm.Operation'
// counterpart. An unrecognized command or segment aborts translation with a
// *SyntaxError rather than embedding a marker string in the generated output.
type Parser struct{ lines []string }

// NewParser builds a Parser over the raw lines of a VM source file.
func NewParser(rawLines []string) Parser {
	return Parser{lines: rawLines}
}

// Parse runs the full text → AST → Module pipeline.
func (p Parser) Parse() (Module, error) {
	source := []byte(joinLines(p.lines))

	root, ok := p.FromSource(source)
	if !ok {
		return nil, &SyntaxError{Detail: "unable to parse VM source"}
	}

	return p.FromAST(root)
}

func joinLines(lines []string) string {
	out := make([]byte, 0, len(lines)*8)
	for _, l := range lines {
		out = append(out, l...)
		out = append(out, '\n')
	}
	return string(out)
}

// Scans the textual input stream and returns a traversable AST (Abstract Syntax
// Tree) that can be eventually visited to extract/transform the info available.
func (p Parser) FromSource(source []byte) (pc.Queryable, bool) {
	root, _ := ast.Parsewith(pModule, pc.NewScanner(source))
	return root, root != nil
}

// This function takes the root node of the raw parsed AST and does a DFS on it parsing
// one by one each subtree and retuning a 'vm.Module' that can be used as in-memory and
// type-safe AST not dependent on the parsing library used.
func (p Parser) FromAST(root pc.Queryable) (Module, error) {
	module := []Operation{}

	if root.GetName() != "module" {
		return nil, &SyntaxError{Detail: fmt.Sprintf("expected node 'module', found %s", root.GetName())}
	}

	for _, child := range root.GetChildren() {
		op, err := p.fromNode(child)
		if err != nil {
			return nil, err
		}
		if op == nil { // comment nodes are skipped
			continue
		}
		module = append(module, op)
	}

	return module, nil
}

func (p Parser) fromNode(child pc.Queryable) (Operation, error) {
	switch child.GetName() {
	case "memory_op":
		return p.HandleMemoryOp(child)
	case "arithmetic_op":
		return p.HandleArithmeticOp(child)
	case "label_decl":
		return p.HandleLabelDecl(child)
	case "goto_op":
		return p.HandleGotoOp(child)
	case "func_decl":
		return p.HandleFuncDecl(child)
	case "return_op":
		return p.HandleReturnOp(child)
	case "func_call":
		return p.HandleFuncCall(child)
	case "comment":
		return nil, nil
	default:
		return nil, &SyntaxError{Detail: fmt.Sprintf("unrecognized node '%s'", child.GetName())}
	}
}

// Specialized function to convert a "memory_op" node to a 'vm.MemoryOp'.
func (Parser) HandleMemoryOp(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, &SyntaxError{Detail: fmt.Sprintf("expected node with 3 leaf, got %d", len(children))}
	}

	operation := OperationType(children[0].GetValue())
	segment := SegmentType(children[1].GetValue())
	offset, err := strconv.ParseUint(children[2].GetValue(), 10, 16)
	if err != nil {
		return nil, &SyntaxError{Detail: fmt.Sprintf("failed to parse 'offset' in MemoryOp, got '%s'", children[2].GetValue())}
	}

	return MemoryOp{Operation: operation, Segment: segment, Offset: uint16(offset)}, nil
}

// Specialized function to convert a "arithmetic_op" node to a 'vm.ArithmeticOp'.
func (Parser) HandleArithmeticOp(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 1 {
		return nil, &SyntaxError{Detail: fmt.Sprintf("expected node 'arithmetic_op' with 1 leaf, got %d", len(children))}
	}

	return ArithmeticOp{Operation: ArithOpType(children[0].GetValue())}, nil
}

// Specialized function to convert a "label_decl" node to a 'vm.LabelDecl'.
func (Parser) HandleLabelDecl(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 2 {
		return nil, &SyntaxError{Detail: fmt.Sprintf("expected node 'label_decl' with 2 leaf, got %d", len(children))}
	}

	return LabelDecl{Name: children[1].GetValue()}, nil
}

// Specialized function to convert a "goto_op" node to a 'vm.GotoOp'.
func (Parser) HandleGotoOp(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 2 {
		return nil, &SyntaxError{Detail: fmt.Sprintf("expected node 'goto_op' with 2 leaf, got %d", len(children))}
	}

	jump := JumpType(children[0].GetValue())
	label := children[1].GetValue()

	return GotoOp{Jump: jump, Label: label}, nil
}

// Specialized function to convert a "func_decl" node to a 'vm.FuncDecl'.
func (Parser) HandleFuncDecl(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, &SyntaxError{Detail: fmt.Sprintf("expected node 'func_decl' with 3 leaf, got %d", len(children))}
	}

	name := children[1].GetValue()
	nLocal, err := strconv.ParseUint(children[2].GetValue(), 10, 16)
	if err != nil {
		return nil, &SyntaxError{Detail: fmt.Sprintf("failed to parse 'n_locals' in FuncDecl, got '%s'", children[2].GetValue())}
	}

	return FuncDecl{Name: name, NLocal: uint16(nLocal)}, nil
}

// Specialized function to convert a "return_op" node to a 'vm.ReturnOp'.
func (Parser) HandleReturnOp(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 1 {
		return nil, &SyntaxError{Detail: fmt.Sprintf("expected node 'return_op' with 1 leaf, got %d", len(children))}
	}

	return ReturnOp{}, nil
}

// Specialized function to convert a "func_call" node to a 'vm.FuncCallOp'.
func (Parser) HandleFuncCall(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, &SyntaxError{Detail: fmt.Sprintf("expected node 'func_call' with 3 leaf, got %d", len(children))}
	}

	name := children[1].GetValue()
	nArgs, err := strconv.ParseUint(children[2].GetValue(), 10, 16)
	if err != nil {
		return nil, &SyntaxError{Detail: fmt.Sprintf("failed to parse 'n_args' in FuncCallOp, got '%s'", children[2].GetValue())}
	}

	return FuncCallOp{Name: name, NArgs: uint16(nArgs)}, nil
}
