package vm

import (
	"fmt"

	"github.com/dcbuild3r/nand2tetris/pkg/utils"
)

// ----------------------------------------------------------------------------
// Stack-balance validation

// Validate walks a Module tracking the net depth of the operand stack and
// reports an error the first time a pop, arithmetic, or return operation
// would read below the bottom of the current straight-line block.
//
// The tracked depth resets at every label declaration, branch, function
// declaration, and return: once control can jump in from elsewhere, a
// static count over the rest of the module is no longer sound, so each
// block is checked independently rather than the module as a whole.
//
// This is opt-in (see the '--strict' flag on the vm_translator command) since
// well-formed programs emitted by the standard compiler never trip it, and
// legitimately unbalanced blocks (e.g. a function whose only path out is an
// early return) are common enough that enabling it by default would be noisy.
func Validate(module Module) error {
	stack := utils.NewStack[struct{}]()

	for _, op := range module {
		switch o := op.(type) {
		case MemoryOp:
			if err := validateMemoryOp(&stack, o); err != nil {
				return err
			}
		case ArithmeticOp:
			if err := validateArithmeticOp(&stack, o); err != nil {
				return err
			}
		case FuncCallOp:
			if err := validateFuncCall(&stack, o); err != nil {
				return err
			}
		case ReturnOp:
			if _, err := stack.Pop(); err != nil {
				return fmt.Errorf("stack underflow: 'return' requires a value on the stack")
			}
			stack = utils.NewStack[struct{}]()
		case LabelDecl, GotoOp, FuncDecl:
			stack = utils.NewStack[struct{}]()
		}
	}

	return nil
}

func validateMemoryOp(stack *utils.Stack[struct{}], op MemoryOp) error {
	switch op.Operation {
	case Push:
		stack.Push(struct{}{})
	case Pop:
		if _, err := stack.Pop(); err != nil {
			return fmt.Errorf("stack underflow: 'pop %s %d' has nothing to pop in this block", op.Segment, op.Offset)
		}
	}
	return nil
}

func validateArithmeticOp(stack *utils.Stack[struct{}], op ArithmeticOp) error {
	switch op.Operation {
	case Neg, Not:
		if _, err := stack.Pop(); err != nil {
			return fmt.Errorf("stack underflow: '%s' requires a value on the stack", op.Operation)
		}
		stack.Push(struct{}{})
	default: // Add, Sub, And, Or, Eq, Gt, Lt: all pop two and push one
		if _, err := stack.Pop(); err != nil {
			return fmt.Errorf("stack underflow: '%s' requires two values on the stack", op.Operation)
		}
		if _, err := stack.Pop(); err != nil {
			return fmt.Errorf("stack underflow: '%s' requires two values on the stack", op.Operation)
		}
		stack.Push(struct{}{})
	}
	return nil
}

func validateFuncCall(stack *utils.Stack[struct{}], op FuncCallOp) error {
	for i := uint16(0); i < op.NArgs; i++ {
		if _, err := stack.Pop(); err != nil {
			return fmt.Errorf("stack underflow: 'call %s %d' expects %d argument(s) already on the stack", op.Name, op.NArgs, op.NArgs)
		}
	}
	stack.Push(struct{}{}) // the callee's eventual return value
	return nil
}
