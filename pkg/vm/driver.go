package vm

import (
	"sort"

	"github.com/dcbuild3r/nand2tetris/pkg/asm"
)

// ----------------------------------------------------------------------------
// Vm Driver

// Driver orchestrates translating either a single '.vm' file or a whole
// directory of them into one Assembler program: file ordering, the
// static-segment namespace per file, bootstrap placement, and the trailing
// infinite loop are all decided here rather than ad hoc in 'cmd/vm_translator'.
type Driver struct {
	lowerer *Lowerer
	strict  bool // opt-in stack-balance validation, see validate.go
}

// NewDriver returns a Driver ready to translate one run's worth of input.
func NewDriver() *Driver {
	return &Driver{lowerer: NewLowerer()}
}

// EnableStrict turns on the stack-balance linter for every module this Driver
// translates from this point on.
func (d *Driver) EnableStrict() {
	d.strict = true
}

// TranslateFile lowers a single module in isolation: no bootstrap is
// prepended, and its static-segment namespace is 'name' (cmd/vm_translator
// passes the empty string, so 'static i' resolves to the label '.i').
func (d *Driver) TranslateFile(name string, rawLines []string) (asm.Program, error) {
	program, err := d.translateModule(name, rawLines)
	if err != nil {
		return nil, err
	}
	return appendEnd(program), nil
}

// TranslateDirectory lowers every module in 'files', prepending the bootstrap
// sequence once and visiting modules in lexicographic order by name for
// deterministic output regardless of the host's directory iteration order.
func (d *Driver) TranslateDirectory(files map[string][]string) (asm.Program, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	program, err := d.lowerer.Bootstrap()
	if err != nil {
		return nil, err
	}

	for _, name := range names {
		module, err := d.translateModule(name, files[name])
		if err != nil {
			return nil, err
		}
		program = append(program, module...)
	}

	return appendEnd(program), nil
}

func (d *Driver) translateModule(name string, rawLines []string) (asm.Program, error) {
	parser := NewParser(rawLines)
	module, err := parser.Parse()
	if err != nil {
		return nil, err
	}

	if d.strict {
		if err := Validate(module); err != nil {
			return nil, err
		}
	}

	d.lowerer.SetNamespace(name)
	return d.lowerer.Lower(module)
}

// appendEnd appends the infinite loop every translated program ends on, so
// the CPU has somewhere to sit once execution reaches the last instruction.
func appendEnd(program asm.Program) asm.Program {
	return append(program,
		asm.LabelDecl{Name: "END"},
		asm.AInstruction{Location: "END"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	)
}
