package vm

import (
	"fmt"
	"strings"

	"github.com/dcbuild3r/nand2tetris/pkg/asm"
)

// segmentBase maps the four register-indirect segments to the Hack register
// that holds their base address; 'constant' needs no base (it pushes a literal),
// 'temp'/'pointer' use a fixed base folded into the offset at lowering time
// (see directMemoryOp), and 'static' is resolved to a per-module label.
var segmentBase = map[SegmentType]string{
	Local:    "LCL",
	Argument: "ARG",
	This:     "THIS",
	That:     "THAT",
}

// ----------------------------------------------------------------------------
// Vm Lowerer

// The Lowerer takes a parsed 'vm.Module' and produces its 'asm.Program' counterpart.
//
// One Lowerer instance is shared across every module of a translation run (never
// one per file): the comparison-label counters and the call counter must keep
// advancing across file boundaries in directory mode, or two modules could emit
// colliding labels (VM labels are emitted verbatim, not function-qualified).
type Lowerer struct {
	namespace string // current module's static-segment namespace (the file's base name)

	eqCounter, gtCounter, ltCounter uint64 // one independent counter per comparison op
	callCounter                     uint64 // shared across every 'call' in the run
}

// NewLowerer returns a fresh Lowerer with all counters at zero.
func NewLowerer() *Lowerer {
	return &Lowerer{}
}

// SetNamespace selects the static-segment namespace used to resolve 'static i'
// memory operations for every subsequent call to Lower, until changed again.
func (l *Lowerer) SetNamespace(name string) {
	l.namespace = name
}

// Lower converts every operation of 'module' into its lowered Assembler statements,
// in order, failing on the first unrecognized operation or segment.
func (l *Lowerer) Lower(module Module) (asm.Program, error) {
	program := make(asm.Program, 0, len(module)*4)

	for _, operation := range module {
		var lowered asm.Program
		var err error

		switch op := operation.(type) {
		case MemoryOp:
			lowered, err = l.handleMemoryOp(op)
		case ArithmeticOp:
			lowered, err = l.handleArithmeticOp(op)
		case LabelDecl:
			lowered, err = l.handleLabelDecl(op)
		case GotoOp:
			lowered, err = l.handleGotoOp(op)
		case FuncDecl:
			lowered, err = l.handleFuncDecl(op)
		case FuncCallOp:
			lowered, err = l.handleFuncCall(op)
		case ReturnOp:
			lowered, err = l.handleReturnOp(op)
		default:
			err = &SyntaxError{Detail: fmt.Sprintf("unrecognized operation '%T'", operation)}
		}

		if err != nil {
			return nil, err
		}
		program = append(program, lowered...)
	}

	return program, nil
}

// Bootstrap returns the fixed prelude every multi-file (directory-mode)
// translation prepends once: set SP to 256, then call Sys.init with no
// arguments. This is the only caller-supplied entry into the call protocol
// below, and it participates in the same call counter as ordinary calls.
func (l *Lowerer) Bootstrap() (asm.Program, error) {
	program := asm.Program{
		asm.AInstruction{Location: "256"}, asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "M", Comp: "D"},
	}

	call, err := l.handleFuncCall(FuncCallOp{Name: "Sys.init", NArgs: 0})
	if err != nil {
		return nil, err
	}
	return append(program, call...), nil
}

// ----------------------------------------------------------------------------
// Shared stack primitives

// pushD pushes the value currently in the D register onto the top of the stack.
func pushD() asm.Program {
	return asm.Program{
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "M", Comp: "M+1"},
	}
}

// popD pops the top of the stack into the D register.
func popD() asm.Program {
	return asm.Program{
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
	}
}

// ----------------------------------------------------------------------------
// Memory Op

func (l *Lowerer) handleMemoryOp(op MemoryOp) (asm.Program, error) {
	switch op.Segment {
	case Constant:
		if op.Operation == Pop {
			return nil, &SyntaxError{Detail: "cannot pop into the 'constant' segment"}
		}
		program := asm.Program{
			asm.AInstruction{Location: fmt.Sprint(op.Offset)}, asm.CInstruction{Dest: "D", Comp: "A"},
		}
		return append(program, pushD()...), nil

	case Local, Argument, This, That:
		return l.indirectMemoryOp(op, segmentBase[op.Segment])

	case Temp:
		if op.Offset > 7 {
			return nil, &SyntaxError{Detail: fmt.Sprintf("'temp' offset out of range [0,7], got %d", op.Offset)}
		}
		return directMemoryOp(op, 5+op.Offset)

	case Pointer:
		if op.Offset > 1 {
			return nil, &SyntaxError{Detail: fmt.Sprintf("'pointer' offset out of range [0,1], got %d", op.Offset)}
		}
		return directMemoryOp(op, 3+op.Offset)

	case Static:
		return labelMemoryOp(op, fmt.Sprintf("%s.%d", l.namespace, op.Offset))

	default:
		return nil, &SyntaxError{Detail: fmt.Sprintf("unrecognized segment '%s'", op.Segment)}
	}
}

// indirectMemoryOp lowers push/pop for the four register-indirect segments,
// where the effective address is 'base register value + offset'.
func (l *Lowerer) indirectMemoryOp(op MemoryOp, base string) (asm.Program, error) {
	if op.Operation == Push {
		program := asm.Program{
			asm.AInstruction{Location: fmt.Sprint(op.Offset)}, asm.CInstruction{Dest: "D", Comp: "A"},
			asm.AInstruction{Location: base}, asm.CInstruction{Dest: "D", Comp: "D+M"},
			asm.CInstruction{Dest: "A", Comp: "D"}, asm.CInstruction{Dest: "D", Comp: "M"},
		}
		return append(program, pushD()...), nil
	}

	program := asm.Program{
		asm.AInstruction{Location: fmt.Sprint(op.Offset)}, asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: base}, asm.CInstruction{Dest: "D", Comp: "D+M"},
		asm.AInstruction{Location: "addr"}, asm.CInstruction{Dest: "M", Comp: "D"},
	}
	program = append(program, popD()...)
	program = append(program,
		asm.AInstruction{Location: "addr"}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Dest: "M", Comp: "D"},
	)
	return program, nil
}

// directMemoryOp lowers push/pop for a segment whose effective address is a
// compile-time constant (temp, pointer): 'addr' is that resolved address.
func directMemoryOp(op MemoryOp, addr uint16) (asm.Program, error) {
	return labelMemoryOp(op, fmt.Sprint(addr))
}

// labelMemoryOp lowers push/pop against a bare A-instruction location, shared
// by the temp/pointer (numeric address) and static (symbolic label) segments.
func labelMemoryOp(op MemoryOp, location string) (asm.Program, error) {
	if op.Operation == Push {
		program := asm.Program{asm.AInstruction{Location: location}, asm.CInstruction{Dest: "D", Comp: "M"}}
		return append(program, pushD()...), nil
	}

	program := popD()
	program = append(program, asm.AInstruction{Location: location}, asm.CInstruction{Dest: "M", Comp: "D"})
	return program, nil
}

// ----------------------------------------------------------------------------
// Arithmetic Op

var binaryComp = map[ArithOpType]string{Add: "D+M", Sub: "M-D", And: "D&M", Or: "D|M"}
var unaryComp = map[ArithOpType]string{Neg: "-M", Not: "!M"}

func (l *Lowerer) handleArithmeticOp(op ArithmeticOp) (asm.Program, error) {
	if comp, ok := binaryComp[op.Operation]; ok {
		program := popD()
		program = append(program, asm.CInstruction{Dest: "A", Comp: "A-1"}, asm.CInstruction{Dest: "M", Comp: comp})
		return program, nil
	}

	if comp, ok := unaryComp[op.Operation]; ok {
		return asm.Program{
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "A", Comp: "M-1"}, asm.CInstruction{Dest: "M", Comp: comp},
		}, nil
	}

	switch op.Operation {
	case Eq, Gt, Lt:
		return l.handleComparisonOp(op.Operation), nil
	default:
		return nil, &SyntaxError{Detail: fmt.Sprintf("unrecognized arithmetic operation '%s'", op.Operation)}
	}
}

// handleComparisonOp lowers eq/gt/lt. Each comparison op owns its own
// monotonically increasing counter so eq/gt/lt labels never collide with each
// other, even though VM labels are otherwise emitted verbatim.
func (l *Lowerer) handleComparisonOp(op ArithOpType) asm.Program {
	counter, jump := l.comparisonCounter(op)
	*counter++

	trueLabel := fmt.Sprintf("%s_TRUE_%d", strings.ToUpper(string(op)), *counter)
	endLabel := fmt.Sprintf("%s_END_%d", strings.ToUpper(string(op)), *counter)

	program := popD()
	program = append(program,
		asm.CInstruction{Dest: "A", Comp: "A-1"},
		asm.CInstruction{Dest: "D", Comp: "M-D"},
		asm.AInstruction{Location: trueLabel}, asm.CInstruction{Comp: "D", Jump: jump},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "A", Comp: "M-1"}, asm.CInstruction{Dest: "M", Comp: "0"},
		asm.AInstruction{Location: endLabel}, asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: trueLabel},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "A", Comp: "M-1"}, asm.CInstruction{Dest: "M", Comp: "-1"},
		asm.LabelDecl{Name: endLabel},
	)
	return program
}

func (l *Lowerer) comparisonCounter(op ArithOpType) (*uint64, string) {
	switch op {
	case Gt:
		return &l.gtCounter, "JGT"
	case Lt:
		return &l.ltCounter, "JLT"
	default: // Eq
		return &l.eqCounter, "JEQ"
	}
}

// ----------------------------------------------------------------------------
// Branching

func (l *Lowerer) handleLabelDecl(op LabelDecl) (asm.Program, error) {
	if op.Name == "" {
		return nil, &SyntaxError{Detail: "unable to produce empty label declaration"}
	}
	return asm.Program{asm.LabelDecl{Name: op.Name}}, nil
}

func (l *Lowerer) handleGotoOp(op GotoOp) (asm.Program, error) {
	if op.Label == "" {
		return nil, &SyntaxError{Detail: "unable to produce empty jump target"}
	}

	if op.Jump == Unconditional {
		return asm.Program{
			asm.AInstruction{Location: op.Label}, asm.CInstruction{Comp: "0", Jump: "JMP"},
		}, nil
	}

	// Conditional ('if-goto'): jump only if the popped stack top is non-zero.
	return asm.Program{
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "AM", Comp: "M-1"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: op.Label}, asm.CInstruction{Comp: "D", Jump: "JNE"},
	}, nil
}

// ----------------------------------------------------------------------------
// Function declaration, call, return

func (l *Lowerer) handleFuncDecl(op FuncDecl) (asm.Program, error) {
	if op.Name == "" {
		return nil, &SyntaxError{Detail: "unable to produce empty function declaration"}
	}

	program := asm.Program{asm.LabelDecl{Name: op.Name}}
	// Zero-initialize exactly NLocal stack slots for the callee's local segment.
	zeroPush := asm.Program{
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Dest: "M", Comp: "0"},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "M", Comp: "M+1"},
	}
	for i := uint16(0); i < op.NLocal; i++ {
		program = append(program, zeroPush...)
	}
	return program, nil
}

func (l *Lowerer) handleFuncCall(op FuncCallOp) (asm.Program, error) {
	if op.Name == "" {
		return nil, &SyntaxError{Detail: "unable to produce empty function call"}
	}
	l.callCounter++
	retLabel := fmt.Sprintf("RETURN_ADDRESS_%d", l.callCounter)

	program := asm.Program{}
	// Save the return address, then the caller's frame (LCL, ARG, THIS, THAT).
	program = append(program, asm.AInstruction{Location: retLabel}, asm.CInstruction{Dest: "D", Comp: "A"})
	program = append(program, pushD()...)
	for _, saved := range []string{"LCL", "ARG", "THIS", "THAT"} {
		program = append(program, asm.AInstruction{Location: saved}, asm.CInstruction{Dest: "D", Comp: "M"})
		program = append(program, pushD()...)
	}
	// ARG = SP - 5 - nArgs (reposition to the start of the callee's arguments).
	program = append(program,
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "5"}, asm.CInstruction{Dest: "D", Comp: "D-A"},
		asm.AInstruction{Location: fmt.Sprint(op.NArgs)}, asm.CInstruction{Dest: "D", Comp: "D-A"},
		asm.AInstruction{Location: "ARG"}, asm.CInstruction{Dest: "M", Comp: "D"},
	)
	// LCL = SP
	program = append(program,
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"}, asm.CInstruction{Dest: "M", Comp: "D"},
	)
	// goto functionName; (RETURN_ADDRESS_n)
	program = append(program,
		asm.AInstruction{Location: op.Name}, asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: retLabel},
	)
	return program, nil
}

// restoreFromEndframe rebuilds 'restoreFromEndframe(k, dest)' == 'dest = *(endframe - k)'.
func restoreFromEndframe(k uint16, dest string) asm.Program {
	return asm.Program{
		asm.AInstruction{Location: "endframe"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: fmt.Sprint(k)}, asm.CInstruction{Dest: "A", Comp: "D-A"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: dest}, asm.CInstruction{Dest: "M", Comp: "D"},
	}
}

func (l *Lowerer) handleReturnOp(op ReturnOp) (asm.Program, error) {
	program := asm.Program{
		// endframe = LCL
		asm.AInstruction{Location: "LCL"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "endframe"}, asm.CInstruction{Dest: "M", Comp: "D"},
		// retaddr = *(endframe - 5)
		asm.AInstruction{Location: "5"}, asm.CInstruction{Dest: "A", Comp: "D-A"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "retaddr"}, asm.CInstruction{Dest: "M", Comp: "D"},
		// *ARG = pop()
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "AM", Comp: "M-1"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "ARG"}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Dest: "M", Comp: "D"},
		// SP = ARG + 1
		asm.AInstruction{Location: "ARG"}, asm.CInstruction{Dest: "D", Comp: "M+1"},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "M", Comp: "D"},
	}

	program = append(program, restoreFromEndframe(1, "THAT")...)
	program = append(program, restoreFromEndframe(2, "THIS")...)
	program = append(program, restoreFromEndframe(3, "ARG")...)
	program = append(program, restoreFromEndframe(4, "LCL")...)

	program = append(program,
		asm.AInstruction{Location: "retaddr"}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Comp: "0", Jump: "JMP"},
	)
	return program, nil
}
