package asm

// ----------------------------------------------------------------------------
// Parsed source statements
//
// Statement is the pre-lowering representation of a single surviving line of
// Assembler source: a label declaration or one of the two instruction kinds.
// hack.Instruction is its post-lowering counterpart, once labels have been
// resolved to addresses and A-instruction locations classified.

type Statement interface{}

// Program is the parsed, not-yet-lowered instruction stream of an Assembler
// source file, one Statement per surviving (non-comment, non-blank) line.
type Program []Statement

// ----------------------------------------------------------------------------
// Label declarations

// LabelDecl marks the instruction that follows it with a symbolic name; it
// emits no instruction of its own. Lowering records the index of the next
// instruction under this name in the symbol table so later AInstructions can
// reference it by name instead of by raw address.
type LabelDecl struct {
	Name string
}

// ----------------------------------------------------------------------------
// A instructions

// AInstruction loads a 15-bit value into the A register, addressing either a
// RAM cell directly (raw literal), a predefined register/I/O port (built-in),
// or a location named elsewhere in the program (label or user variable).
// Parsing doesn't yet know which of the three Location is — that's decided
// during lowering, once every label declaration in the program is known.
type AInstruction struct {
	Location string
}

// ----------------------------------------------------------------------------
// C instructions

// CInstruction performs a computation and, independently, may store its
// result (Dest) and/or branch on it (Jump); either sub-field may be empty.
// Comp is mandatory — a C instruction with no computation isn't meaningful.
type CInstruction struct {
	Comp string
	Dest string
	Jump string
}
