package vm

// ----------------------------------------------------------------------------
// General information

// This section contains some general information about the VM intermediate language.
//
// We declare a shared 'Operation' interface for every macro operation available for the
// language and we define some other useful top-level struct such as Program and Module.
// Is important to note that a VM program can be composed of multiple translation units
// that can be also referenced as file or modules or also classes.

// A VM Program is just a set of multiple modules/files, in the VM spec each Jack class is
// translated to its own .vm file (just like Java .class file) that can be handled as its
// own translation unit during the compilation or lowering phases. The map key is the file's
// base name without extension, which also doubles as that module's static-segment namespace.
type Program map[string]Module

// A VM Module is just a linear list of VM operations/instructions
type Module []Operation

// Used to put together all operation in the VM language (Memory, Arithmetic, ... ops).
type Operation interface{}

// ----------------------------------------------------------------------------
// Memory Op

// In memory representation of a Memory operation for the VM language.
//
// In the VM intermediate language there are only two possible memory operation on the stack.
// We could either push a new value taken from the specified segment location on the stack's
// top or take the stack's top and saves its value at the specified segment location.
type MemoryOp struct {
	Operation OperationType // The type of operation, either 'push' or 'pop'
	Segment   SegmentType   // The named memory segment to use (this, that, temp, ...)
	Offset    uint16        // The specific location/offset inside of the memory segment
}

type OperationType string // Enum to manage the operation allowed for a MemoryOp

const (
	Push OperationType = "push"
	Pop  OperationType = "pop"
)

type SegmentType string // Enum to manage the segment accessible for a MemoryOp

const (
	Temp     SegmentType = "temp"     // Real segment used to store intermediate computations
	Constant SegmentType = "constant" // Virtual segment used to access numeric constant

	Local    SegmentType = "local"    // Real segment used to store local function variables
	Static   SegmentType = "static"   // Real segment used to store shared/static variables
	Argument SegmentType = "argument" // Real segment used to store function's argument

	This    SegmentType = "this"    // Virtual segment used to point to a specific memory location
	That    SegmentType = "that"    // Virtual segment used to point to a specific memory location
	Pointer SegmentType = "pointer" // Real segment w/ 2 location used to set the 'this' and 'that' pointers
)

// ----------------------------------------------------------------------------
// Arithmetic Op

// In memory representation of a Arithmetic operation for the VM language.
//
// In the VM intermediate language there are just a handful of operation available.
// In particular each operation acts directly on the top of the stack, of course we have both unary
// and binary operation, the specific management of each op will be handled in the lowering phase.
type ArithmeticOp struct{ Operation ArithOpType }

type ArithOpType string // Enum to manage the operation allowed for an ArithmeticOp

const (
	Eq ArithOpType = "eq" // Comparison operations
	Gt ArithOpType = "gt"
	Lt ArithOpType = "lt"

	Add ArithOpType = "add" // Arithmetic operations
	Sub ArithOpType = "sub"
	Neg ArithOpType = "neg"

	Not ArithOpType = "not" // Bitwise operations
	And ArithOpType = "and"
	Or  ArithOpType = "or"
)

// ----------------------------------------------------------------------------
// Label Declaration & Branching Ops

// In memory representation of a label declaration statement for the VM language.
//
// Labels are emitted verbatim in the generated Assembler output (no function-name
// qualification), so two functions in the same module must not declare the same label.
type LabelDecl struct {
	Name string // The symbol/ident chosen by the user for the label
}

// In memory representation of a branching operation for the VM language.
//
// 'goto' jumps unconditionally, 'if-goto' jumps only if the value popped off the
// top of the stack is non-zero (the Hack truth value for boolean 'true').
type GotoOp struct {
	Jump  JumpType // Either unconditional ('goto') or conditional on the popped stack top ('if-goto')
	Label string   // The target label, emitted verbatim and resolved by the assembler across the whole program
}

type JumpType string // Enum to manage the two flavors of branching available in the VM language

const (
	Unconditional JumpType = "goto"    // Always jumps to the target label
	Conditional   JumpType = "if-goto" // Jumps only if the popped stack top is non-zero
)

// ----------------------------------------------------------------------------
// Function Ops

// In memory representation of a function declaration statement for the VM language.
//
// Declares a new callable entry point and how many local variables it needs; the
// generated code is responsible for zero-initializing exactly that many stack slots.
type FuncDecl struct {
	Name   string // The fully qualified function name (e.g. "Math.multiply")
	NLocal uint16 // The number of local variables the function allocates on entry
}

// In memory representation of a function call statement for the VM language.
//
// Transfers control to 'Name' after saving the caller's frame (return address, LCL,
// ARG, THIS, THAT) on the stack and repositioning ARG/LCL for the callee.
type FuncCallOp struct {
	Name  string // The fully qualified function name being invoked
	NArgs uint16 // The number of arguments already pushed onto the stack by the caller
}

// In memory representation of a return statement for the VM language.
//
// Restores the caller's frame from the words 'call' saved on the stack below the
// callee's LCL (addressed through the 'endframe' scratch cell), repositions SP just
// past the return value, and jumps back to the saved return address.
type ReturnOp struct{}
