package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/teris-io/cli"

	"github.com/dcbuild3r/nand2tetris/pkg/asm"
	"github.com/dcbuild3r/nand2tetris/pkg/hack"
)

var Description = strings.ReplaceAll(`
The Hack Assembler takes assembly language code written in the Hack assembly language
and translates it into machine code that can be executed by the Hack computer. The process
involves parsing the assembly code, resolving symbols, and generating machine code.
`, "\n", " ")

var HackAssembler = cli.New(Description).
	WithOption(cli.NewOption("input", "The assembler (.asm) file to be compiled").
		WithChar('i').WithType(cli.TypeString)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	input := options["input"]
	if input == "" {
		fmt.Println("ERROR: missing required option --input/-i")
		return 1
	}

	source, err := os.ReadFile(input)
	if err != nil {
		fmt.Printf("ERROR: unable to open input file: %s\n", err)
		return 1
	}

	outputPath := outputPathFor(input)
	output, err := os.Create(outputPath)
	if err != nil {
		fmt.Printf("ERROR: unable to open output file: %s\n", err)
		return 1
	}
	defer output.Close()

	program, err := assemble(strings.Split(string(source), "\n"))
	if err != nil {
		fmt.Println(err)
		return 1
	}

	for _, line := range program {
		if _, err := fmt.Fprintf(output, "%s\n", line); err != nil {
			fmt.Printf("ERROR: unable to write output file: %s\n", err)
			return 1
		}
	}

	return 0
}

// assemble runs the full parse -> lower -> codegen pipeline over the raw
// lines of a single Assembler source file, returning the ready-to-write
// '.hack' binary lines.
func assemble(rawLines []string) ([]string, error) {
	parser := asm.NewParser(rawLines)
	program, err := parser.Parse()
	if err != nil {
		return nil, err
	}

	lowerer := asm.NewLowerer(program)
	hackProgram, table, err := lowerer.Lower()
	if err != nil {
		return nil, err
	}

	codegen := hack.NewCodeGenerator(hackProgram, table)
	return codegen.Generate()
}

// outputPathFor derives the '.hack' output path from the '.asm' input path,
// swapping only a trailing '.asm' extension and otherwise appending '.hack'.
func outputPathFor(input string) string {
	if strings.HasSuffix(input, ".asm") {
		return strings.TrimSuffix(input, ".asm") + ".hack"
	}
	return input + ".hack"
}

func main() { os.Exit(HackAssembler.Run(os.Args, os.Stdout)) }
