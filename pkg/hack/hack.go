package hack

// ----------------------------------------------------------------------------
// Lowered instruction stream
//
// Instruction is the post-lowering counterpart of asm.Statement: every label
// has been resolved to an instruction index and every A-instruction location
// classified, leaving only what codegen needs to emit a line of bits.

type Instruction interface{}

// MaxAddressableMemory is one past the highest address an A instruction can
// reach: its 15 value bits span [0, 2^15).
const MaxAddressableMemory uint16 = 1 << 15

// Program is a fully lowered, ready-to-encode sequence of Hack instructions.
type Program []Instruction

// ----------------------------------------------------------------------------
// A instructions

// AInstruction is a lowered A instruction: LocType tells codegen which of the
// three address spaces LocName lives in, so it knows whether to parse it as a
// literal, look it up in BuiltInTable, or resolve it through a SymbolTable.
type AInstruction struct {
	LocType LocationType
	LocName string
}

// LocationType distinguishes the three ways an A instruction's operand can be
// resolved to an address.
type LocationType uint8

const (
	Raw     LocationType = iota // literal address, e.g. @2345
	Label                       // user-defined symbol resolved via SymbolTable
	BuiltIn                     // predefined register/port, e.g. @SCREEN, @KBD
)

// ----------------------------------------------------------------------------
// C instructions

// CInstruction is a lowered C instruction carrying the three Hack bit-field
// names (Comp mandatory, Dest/Jump each optional) codegen maps through
// CompTable/DestTable/JumpTable to produce the final 16-bit word.
type CInstruction struct {
	Comp string
	Dest string
	Jump string
}

// ----------------------------------------------------------------------------
// Symbol table

// SymbolTable maps a user or built-in symbol name to its resolved 15-bit
// address. Once inserted a symbol's address never changes (labels are
// resolved in pass 1, before any variable is allocated in pass 2, so labels
// always win a name collision).
//
// The VM translator's scratch cells (`addr`, `endframe`, `retaddr`, see
// spec.md §6/§9) are deliberately NOT pre-reserved here: pass 2 allocates one
// address per distinct symbol name the first time it's seen, so two distinct
// names can never be assigned the same address regardless of which one the
// program happens to reference first. Forcing them to specific addresses
// would add nothing (the collision spec.md §9 warns about can't occur under
// this allocation scheme) while breaking the documented contract that the
// first new variable in a program is assigned address 16 (spec.md §8,
// scenario 2).
type SymbolTable map[string]uint16

// NewSymbolTable returns a table seeded with the predefined Hack symbols,
// ready for pass-1 label insertion followed by pass-2 variable allocation
// starting at address 16.
func NewSymbolTable() SymbolTable {
	table := make(SymbolTable, len(BuiltInTable))
	for name, addr := range BuiltInTable {
		table[name] = addr
	}
	return table
}

// Allocate resolves name to its address, assigning it the next free RAM
// slot (starting at 16, tracked by cursor) the first time the name is
// seen. A later call for the same name returns the address it was first
// given — pass-2 variable assignment must be stable across references.
func (t SymbolTable) Allocate(name string, cursor *uint16) uint16 {
	if address, ok := t[name]; ok {
		return address
	}
	address := 16 + *cursor
	t[name] = address
	*cursor++
	return address
}

// InAddressSpace reports whether address fits in the 15 bits an A
// instruction has available to address Hack's memory (addresses >= 2^15
// fall outside it).
func InAddressSpace(address uint16) bool {
	return address < MaxAddressableMemory
}
