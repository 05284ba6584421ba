package asm

import (
	"fmt"

	pc "github.com/prataprc/goparsec"
)

// ----------------------------------------------------------------------------
// Syntax errors

// SyntaxError reports the 1-based line number of the first instruction the
// parser could not classify, matching spec.md §7's diagnostic contract.
type SyntaxError struct {
	Line int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("Assembler failed. Syntax error at line %d of the input file.", e.Line)
}

// ----------------------------------------------------------------------------
// Parser Combinator(s)

// This section defines the Parser Combinator for every token & instruction of the Asm language.
//
// Each cleaned line (see lexer.go) holds exactly one instruction with comments and
// whitespace already stripped, so the grammar below classifies a single line at a
// time instead of a whole program: that keeps every parsed instruction tied to the
// raw source line number it came from, which the spec's syntax errors require.

// Top level object, generates the traversable AST for a single instruction.
var ast = pc.NewAST("assembler", 16)

var (
	// Parser combinator for a generic Assembler instruction (either C, A or Label declaration)
	pInstruction = ast.OrdChoice("instruction", nil, pAInst, pCInst, pLabelDecl)

	// Parser combinator for A Instructions
	pAInst = ast.And("a-inst", nil, pc.Atom("@", "@"), pLabel)
	// Parser combinator for new label declaration
	pLabelDecl = ast.And("label-decl", nil, pc.Atom("(", "("), pLabel, pc.Atom(")", ")"))
	// Parser combinator for C Instructions
	pCInst = ast.And("c-inst", nil,
		ast.Maybe("maybe-assign", nil, ast.And("assign", nil, pDest, pc.Atom("=", "="))),
		pComp, // 'comp' should always be provided
		ast.Maybe("maybe-goto", nil, ast.And("goto", nil, pc.Atom(";", ";"), pJump)),
	)
)

var (
	// Generic label parser (A Instruction + Label declaration)
	// NOTE: A label can be any sequence of letters, digits, and symbols (_, ., $, :).
	// NOTE: A label cannot begin with a leading digit (a symbol is indeed allowed).
	pLabel = ast.OrdChoice("label", nil, pc.Int(), pc.Token(`[A-Za-z_.$:][0-9a-zA-Z_.$:]*`, "SYMBOL"))

	// Generic destination parser (C Instruction subsection)
	// NOTE: The order of the Atoms matters (BFS search): the two/three-register
	// destinations must be tried before the single-register ones or the latter
	// would shadow them (e.g. "A" would match first inside "AMD").
	pDest = ast.OrdChoice("dest", nil,
		pc.Atom("AMD", "AMD"), pc.Atom("AM", "AM"), pc.Atom("AD", "AD"), pc.Atom("MD", "MD"),
		pc.Atom("D", "D"), pc.Atom("A", "A"), pc.Atom("M", "M"),
	)

	// Generic computation parser (C Instruction subsection)
	// NOTE: The order of the Atoms matters (BFS search): the longer 2/3-char
	// comps must be tried before the bare register comps or the latter would
	// shadow them.
	pComp = ast.OrdChoice("comp", nil,
		// - Bitwise register with register operations
		pc.Atom("D&A", "D&A"), pc.Atom("D&M", "D&M"),
		pc.Atom("D|A", "D|A"), pc.Atom("D|M", "D|M"),
		// - Register with register operations
		pc.Atom("D+A", "D+A"), pc.Atom("D+M", "D+M"),
		pc.Atom("D-A", "D-A"), pc.Atom("D-M", "D-M"),
		pc.Atom("A-D", "A-D"), pc.Atom("M-D", "M-D"),
		// - Increment and decrement operations
		pc.Atom("D+1", "D+1"), pc.Atom("A+1", "A+1"), pc.Atom("M+1", "M+1"),
		pc.Atom("D-1", "D-1"), pc.Atom("A-1", "A-1"), pc.Atom("M-1", "M-1"),
		// - Binary and numerical negations
		pc.Atom("!D", "!D"), pc.Atom("!A", "!A"), pc.Atom("!M", "!M"),
		pc.Atom("-D", "-D"), pc.Atom("-A", "-A"), pc.Atom("-M", "-M"),
		// - Constants and identities
		pc.Atom("-1", "-1"), pc.Atom("0", "0"), pc.Atom("1", "1"),
		pc.Atom("D", "D"), pc.Atom("A", "A"), pc.Atom("M", "M"),
	)

	// Generic jump parser (C Instruction subsection)
	pJump = ast.OrdChoice("jump", nil,
		pc.Atom("JNE", "JNE"), pc.Atom("JEQ", "JEQ"),
		pc.Atom("JGT", "JGT"), pc.Atom("JGE", "JGE"),
		pc.Atom("JLT", "JLT"), pc.Atom("JLE", "JLE"),
		pc.Atom("JMP", "JMP"),
	)
)

// ----------------------------------------------------------------------------
// Asm Parser

// Parser turns the cleaned lines of an Assembler source file into a Program,
// failing on the first line that matches neither the A-instruction,
// C-instruction, nor label-declaration grammar.
type Parser struct{ lines []CleanedLine }

// NewParser builds a Parser over the raw lines of an Assembler source file.
func NewParser(rawLines []string) Parser {
	return Parser{lines: Clean(rawLines)}
}

// Parse classifies every cleaned line and returns the resulting Program in
// source order, or a *SyntaxError naming the first unrecognized line.
func (p Parser) Parse() (Program, error) {
	program := make(Program, 0, len(p.lines))

	for _, line := range p.lines {
		root, scanner := ast.Parsewith(pInstruction, pc.NewScanner([]byte(line.Text)))
		if root == nil || !scanner.Endof() {
			return nil, &SyntaxError{Line: line.LineNo}
		}

		stmt, err := fromNode(root)
		if err != nil {
			return nil, &SyntaxError{Line: line.LineNo}
		}
		program = append(program, stmt)
	}

	return program, nil
}

// fromNode converts a single parsed instruction node into its Statement.
func fromNode(node pc.Queryable) (Statement, error) {
	switch node.GetName() {
	case "a-inst":
		return handleAInst(node)
	case "c-inst":
		return handleCInst(node)
	case "label-decl":
		return handleLabelDecl(node)
	default:
		return nil, fmt.Errorf("unrecognized node '%s'", node.GetName())
	}
}

// Specialized function to convert a "a-inst" node to an 'asm.AInstruction'.
func handleAInst(inst pc.Queryable) (Statement, error) {
	children := inst.GetChildren()
	if len(children) != 2 {
		return nil, fmt.Errorf("expected 2 children for 'a-inst', got %d", len(children))
	}

	symbol := children[1] // Prelude checks: inspects the label node type (INT | SYMBOL)
	if symbol.GetName() != "INT" && symbol.GetName() != "SYMBOL" {
		return nil, fmt.Errorf("expected token 'SYMBOL' or 'INT', got %s", symbol.GetName())
	}

	return AInstruction{Location: symbol.GetValue()}, nil
}

// Specialized function to convert a "c-inst" node to an 'asm.CInstruction'.
//
// Unlike the teacher's original version, 'dest' and 'jump' are independently
// optional: a C instruction of the form "dest=comp;jump" carries both.
func handleCInst(inst pc.Queryable) (Statement, error) {
	children := inst.GetChildren()
	if len(children) != 3 {
		return nil, fmt.Errorf("expected 3 children for 'c-inst', got %d", len(children))
	}
	maybeAssign, comp, maybeGoto := children[0], children[1], children[2]

	result := CInstruction{Comp: comp.GetValue()}

	if maybeAssign.GetName() == "assign" && len(maybeAssign.GetChildren()) == 2 {
		result.Dest = maybeAssign.GetChildren()[0].GetValue()
	}
	if maybeGoto.GetName() == "goto" && len(maybeGoto.GetChildren()) == 2 {
		result.Jump = maybeGoto.GetChildren()[1].GetValue()
	}

	return result, nil
}

// Specialized function to extract from a "label-decl" node to an 'asm.LabelDecl'.
func handleLabelDecl(decl pc.Queryable) (Statement, error) {
	children := decl.GetChildren()
	if len(children) != 3 {
		return nil, fmt.Errorf("expected 3 children for 'label-decl', got %d", len(children))
	}

	symbol := children[1] // Prelude checks: inspects the label node type (INT | SYMBOL)
	if symbol.GetName() != "SYMBOL" && symbol.GetName() != "INT" {
		return nil, fmt.Errorf("expected token 'SYMBOL', got %s", symbol.GetName())
	}

	return LabelDecl{Name: symbol.GetValue()}, nil
}
