package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/teris-io/cli"

	"github.com/dcbuild3r/nand2tetris/pkg/asm"
	"github.com/dcbuild3r/nand2tetris/pkg/vm"
)

var Description = strings.ReplaceAll(`
The VM Translator translates programs (composed of multiple modules/files) written in
the VM language into Hack assembly code that can be further elaborated. The VM language
is a higher-level (bytecode'like) language tailored for use with the Hack computer arch.
`, "\n", " ")

var VmTranslator = cli.New(Description).
	WithOption(cli.NewOption("input", "A single '.vm' file, or a directory of them, to be translated").
		WithChar('i').WithType(cli.TypeString)).
	WithOption(cli.NewOption("strict", "Rejects a module whose stack is unbalanced within a straight-line block").
		WithType(cli.TypeBool)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	input := options["input"]
	if input == "" {
		fmt.Println("ERROR: missing required option --input/-i")
		return 1
	}

	info, err := os.Stat(input)
	if err != nil {
		fmt.Printf("ERROR: unable to open input: %s\n", err)
		return 1
	}

	driver := vm.NewDriver()
	if _, strict := options["strict"]; strict {
		driver.EnableStrict()
	}

	var program asm.Program
	var outputPath string

	if info.IsDir() {
		modules, err := collectModules(input)
		if err != nil {
			fmt.Printf("ERROR: unable to read input directory: %s\n", err)
			return 1
		}

		program, err = driver.TranslateDirectory(modules)
		if err != nil {
			fmt.Println(err)
			return 1
		}

		outputPath = filepath.Clean(input) + ".asm"
	} else {
		rawLines, err := readLines(input)
		if err != nil {
			fmt.Printf("ERROR: unable to open input file: %s\n", err)
			return 1
		}

		// Single-file mode carries no static-segment namespace (spec.md §4.6):
		// there is only one module, so a 'static i' reference is unambiguous.
		program, err = driver.TranslateFile("", rawLines)
		if err != nil {
			fmt.Println(err)
			return 1
		}

		outputPath = strings.TrimSuffix(input, filepath.Ext(input)) + ".asm"
	}

	codegen := asm.NewCodeGenerator(program)
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Println(err)
		return 1
	}

	output, err := os.Create(outputPath)
	if err != nil {
		fmt.Printf("ERROR: unable to open output file: %s\n", err)
		return 1
	}
	defer output.Close()

	for _, line := range compiled {
		if _, err := fmt.Fprintf(output, "%s\n", line); err != nil {
			fmt.Printf("ERROR: unable to write output file: %s\n", err)
			return 1
		}
	}

	return 0
}

// collectModules reads every '.vm' file directly inside 'dir', keyed by its
// base name without extension (the static-segment namespace for that module).
func collectModules(dir string) (map[string][]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	modules := map[string][]string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".vm") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".vm")
		rawLines, err := readLines(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		modules[name] = rawLines
	}

	return modules, nil
}

// readLines reads 'path' and splits it into raw lines, ready for vm.NewParser.
func readLines(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(content), "\n"), nil
}

func main() { os.Exit(VmTranslator.Run(os.Args, os.Stdout)) }
