package main

import (
	"fmt"
	"io"

	thaplmagic "github.com/alnah/go-thaplmagic"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: thaplmagic <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  render     Render Thapl cells to images")
	fmt.Fprintln(w, "  doctor     Check the LaTeX toolchain")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'thaplmagic help <command>' for details on a specific command.")
	fmt.Fprintln(w, "Run 'thaplmagic help cell' for the cell argument reference.")
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: thaplmagic render [flags] [cell-file...] [-- cell-args...]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render Thapl cells through LaTeX and publish the resulting images.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  cell-file    Cell body file; none or \"-\" reads standard input")
	fmt.Fprintln(w, "  cell-args    Magic line arguments, applied to every cell")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Cell Arguments:")
	fmt.Fprintln(w, "  -l, --line <s>            Magic line as one shell-quoted string")
	fmt.Fprintln(w, "                            (instead of cell-args after --)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -P, --publish <s>         Display target: json, msgpack, dir (default json)")
	fmt.Fprintln(w, "  -o, --output <dir>        Directory for --publish dir")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Toolchain:")
	fmt.Fprintln(w, "      --engine <path>       LaTeX engine (default xelatex)")
	fmt.Fprintln(w, "      --pdf2svg <path>      pdf2svg executable")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-render timeout, e.g. 30s, 2m")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel renders (0 = auto)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show pipeline stages and commands")
	fmt.Fprintln(w, "      --log-json            Log diagnostics as JSON lines")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  THAPLMAGIC_CONFIG, THAPLMAGIC_ENGINE, THAPLMAGIC_PDF2SVG,")
	fmt.Fprintln(w, "  THAPLMAGIC_IMAGEMAGICK, THAPLMAGIC_TIMEOUT, THAPLMAGIC_WORKERS")
}

// printCellUsage prints the magic line argument reference.
func printCellUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: %%%%thapl [arguments] [code...]\n")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Code tokens are prepended to the cell body. Quote inline LaTeX: outside quotes a backslash escapes the next character.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	thaplmagic.CellUsage(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: thaplmagic doctor [--json] [--config <name>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check the LaTeX engine, the Thapl interpreter, the converters")
	fmt.Fprintln(w, "and the bashful package.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --json                Machine-readable output")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case cmdRender:
		printRenderUsage(env.Stdout)
	case "cell":
		printCellUsage(env.Stdout)
	case cmdDoctor:
		printDoctorUsage(env.Stdout)
	case cmdVersion:
		fmt.Fprintln(env.Stdout, "Usage: thaplmagic version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case cmdHelp:
		fmt.Fprintln(env.Stdout, "Usage: thaplmagic help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
