package asm

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dcbuild3r/nand2tetris/pkg/hack"
)

// ----------------------------------------------------------------------------
// Asm Lowerer

// Lowerer runs pass 1 of the two-pass assembly: it walks a parsed Program in
// source order, resolving every LabelDecl to the instruction index it
// precedes and classifying every AInstruction's location (built-in, raw
// address, or user label) without yet assigning the user labels an address
// — that's pass 2, done lazily by hack.SymbolTable.Allocate during codegen.
type Lowerer struct{ program Program }

// NewLowerer wraps the parsed Program pass 1 will walk.
func NewLowerer(p Program) Lowerer {
	return Lowerer{program: p}
}

// Lower walks the program once, producing the lowered hack.Program plus the
// SymbolTable seeded with every label's resolved instruction index.
func (l *Lowerer) Lower() (hack.Program, hack.SymbolTable, error) {
	if len(l.program) == 0 {
		return nil, nil, fmt.Errorf("the given 'program' is empty")
	}

	instructions := make([]hack.Instruction, 0, len(l.program))
	table := hack.NewSymbolTable()

	for _, statement := range l.program {
		switch concrete := statement.(type) {
		case AInstruction:
			instructions = append(instructions, classifyLocation(concrete))

		case CInstruction:
			hackInst, err := l.HandleCInst(concrete)
			if err != nil {
				return nil, nil, err
			}
			instructions = append(instructions, hackInst)

		case LabelDecl:
			if _, builtin := hack.BuiltInTable[concrete.Name]; builtin {
				return nil, nil, fmt.Errorf("label '%s' cannot override a built-in symbol", concrete.Name)
			}
			// A label resolves to the index of the instruction right after it;
			// len(instructions) is exactly that, since label decls themselves
			// emit nothing.
			table[concrete.Name] = uint16(len(instructions))

		default:
			return nil, nil, fmt.Errorf("unrecognized instruction '%T'", statement)
		}
	}

	return instructions, table, nil
}

// classifyLocation assigns an AInstruction's LocType: a built-in wins over a
// same-named raw/label reading, then a parseable integer is a raw address,
// and anything else is a user-defined label left for pass 2 to allocate.
func classifyLocation(inst AInstruction) hack.AInstruction {
	if _, found := hack.BuiltInTable[inst.Location]; found {
		return hack.AInstruction{LocType: hack.BuiltIn, LocName: inst.Location}
	}
	// An integer too large for the address space is still a raw address (so
	// codegen rejects it), never a user label.
	if _, err := strconv.ParseInt(inst.Location, 10, 64); err == nil || errors.Is(err, strconv.ErrRange) {
		return hack.AInstruction{LocType: hack.Raw, LocName: inst.Location}
	}
	return hack.AInstruction{LocType: hack.Label, LocName: inst.Location}
}

// HandleCInst copies a C instruction's bit-code fields through to its
// hack.CInstruction counterpart, rejecting one missing the mandatory 'comp'
// field before it ever reaches codegen.
func (Lowerer) HandleCInst(inst CInstruction) (hack.Instruction, error) {
	if inst.Comp == "" {
		return nil, fmt.Errorf("'Comp' sub-instruction should always be provided")
	}

	return hack.CInstruction{Dest: inst.Dest, Comp: inst.Comp, Jump: inst.Jump}, nil
}
