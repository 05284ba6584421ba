package hack

import (
	"fmt"
	"strconv"
)

// ----------------------------------------------------------------------------
// Translation tables
//
// Fixed by the Hack ISA, not a style choice: every bit pattern below is
// dictated by the architecture spec, so only the surrounding code changes
// between implementations.
//
//   BuiltInTable — the predefined registers/memory-mapped I/O an A instruction can target
//   CompTable    — the 7-bit 'comp' opcode for every computation a C instruction can perform
//   DestTable    — the 3-bit 'dest' opcode selecting where a computation's result is stored
//   JumpTable    — the 3-bit 'jump' opcode selecting the condition under which to branch

var (
	BuiltInTable = map[string]uint16{
		// Virtual Machine specific aliases (see project 7)
		"SP": 0, "LCL": 1, "ARG": 2, "THIS": 3, "THAT": 4,
		// Named general purpose registers
		"R0": 0, "R1": 1, "R2": 2, "R3": 3, "R4": 4, "R5": 5,
		"R6": 6, "R7": 7, "R8": 8, "R9": 9, "R10": 10, "R11": 11,
		"R12": 12, "R13": 13, "R14": 14, "R15": 15,
		// Memory mapped I/O locations
		"SCREEN": 16384, "KBD": 24576,
	}

	CompTable = map[string]uint16{
		// - Constants and identities
		"0": 0b0101010, "1": 0b0111111, "-1": 0b0111010,
		"D": 0b0001100, "A": 0b0110000, "M": 0b1110000,
		// - Binary and numerical negations
		"!D": 0b0001101, "!A": 0b0110001, "!M": 0b1110001,
		"-D": 0b0001111, "-A": 0b0110011, "-M": 0b1110011,
		// - Increment and decrement operations
		"D+1": 0b0011111, "A+1": 0b0110111, "M+1": 0b1110111,
		"D-1": 0b0001110, "A-1": 0b0110010, "M-1": 0b1110010,
		// - Register with register operations
		"D+A": 0b0000010, "D+M": 0b1000010,
		"D-A": 0b0010011, "D-M": 0b1010011,
		"A-D": 0b0000111, "M-D": 0b1000111,
		// - Bitwise register with register operations
		"D&A": 0b0000000, "D&M": 0b1000000,
		"D|A": 0b0010101, "D|M": 0b1010101,
	}

	DestTable = map[string]uint16{
		"": 0b000, "M": 0b001, "D": 0b010, "A": 0b100,
		"MD": 0b011, "AM": 0b101, "AD": 0b110, "AMD": 0b111,
	}

	JumpTable = map[string]uint16{
		"": 0b000, "JGT": 0b001, "JEQ": 0b010, "JGE": 0b011,
		"JLT": 0b100, "JNE": 0b101, "JLE": 0b110, "JMP": 0b111,
	}
)

// ----------------------------------------------------------------------------
// Code Generator

// CodeGenerator encodes a lowered hack.Program into its binary ("machine
// code") representation, one 16-character line per instruction. Resolving
// A-instruction locations needs a SymbolTable: built-ins and pass-1 labels
// are already in it, pass-2 variable allocation happens lazily here as each
// new name is first encountered.
type CodeGenerator struct {
	program    Program
	table      SymbolTable
	nVarOffset uint16 // next free slot past address 16, bumped by SymbolTable.Allocate
}

// NewCodeGenerator pairs a Program with the SymbolTable that resolves its
// A-instruction locations.
func NewCodeGenerator(p Program, st SymbolTable) CodeGenerator {
	return CodeGenerator{program: p, table: st}
}

// Generate encodes every instruction in source order, bailing out on the
// first one that can't be resolved (unknown built-in, invalid opcode, or an
// address past the 15-bit limit). An unknown label is not an error: it is
// allocated as a new variable.
func (cg *CodeGenerator) Generate() ([]string, error) {
	lines := make([]string, 0, len(cg.program))

	for _, instruction := range cg.program {
		var line string
		var err error

		switch concrete := instruction.(type) {
		case AInstruction:
			line, err = cg.GenerateAInst(concrete)
		case CInstruction:
			line, err = cg.GenerateCInst(concrete)
		default:
			err = fmt.Errorf("no Hack encoding for instruction %T", instruction)
		}

		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, nil
}

// GenerateAInst encodes an A instruction. Raw addresses are parsed
// directly; labels and built-ins go through the SymbolTable, which
// allocates a fresh variable slot on first reference. The opcode bit (bit
// 15) is implicitly zero, leaving 15 bits to address memory, so any
// resolved address at or past 2^15 is rejected.
func (cg *CodeGenerator) GenerateAInst(inst AInstruction) (string, error) {
	address, err := cg.resolveAddress(inst)
	if err != nil {
		return "", err
	}
	if !InAddressSpace(address) {
		return "", fmt.Errorf("location '%s' resolves to address %d, past the 15-bit limit", inst.LocName, address)
	}
	return fmt.Sprintf("%016b", address), nil
}

func (cg *CodeGenerator) resolveAddress(inst AInstruction) (uint16, error) {
	switch inst.LocType {
	case Raw:
		num, err := strconv.ParseInt(inst.LocName, 10, 16)
		if err != nil {
			return 0, fmt.Errorf("location '%s' is not a valid raw address: %s", inst.LocName, err)
		}
		return uint16(num), nil
	case Label:
		return cg.table.Allocate(inst.LocName, &cg.nVarOffset), nil
	case BuiltIn:
		address, found := BuiltInTable[inst.LocName]
		if !found {
			return 0, fmt.Errorf("'%s' is not a recognized built-in location", inst.LocName)
		}
		return address, nil
	default:
		return 0, fmt.Errorf("unrecognized location type for '%s'", inst.LocName)
	}
}

// cBitField packs one component of a C instruction's opcode: it looks up
// 'value' in 'table' and, if found, shifts the result into place.
type cBitField struct {
	name  string
	table map[string]uint16
	value string
	shift uint16
}

// GenerateCInst packs the comp/dest/jump opcodes into the 16-bit word Hack
// expects, with the fixed '111' prefix that marks every C instruction. An
// empty dest or jump resolves through its table's own "" entry (value 0,
// meaning "no destination"/"never jump"); comp has no such entry, so an
// empty or unrecognized comp always fails.
func (cg *CodeGenerator) GenerateCInst(inst CInstruction) (string, error) {
	command := uint16(0b111 << 13)

	fields := [3]cBitField{
		{name: "comp", table: CompTable, value: inst.Comp, shift: 6},
		{name: "dest", table: DestTable, value: inst.Dest, shift: 3},
		{name: "jump", table: JumpTable, value: inst.Jump, shift: 0},
	}

	for _, field := range fields {
		opcode, found := field.table[field.value]
		if !found {
			return "", fmt.Errorf("unknown '%s' opcode '%s'", field.name, field.value)
		}
		command |= opcode << field.shift
	}

	return fmt.Sprintf("%016b", command), nil
}
