// Package thaplmagic renders Thapl code to images through LaTeX.
//
// # Quick Start
//
// Create a service with a publisher, then run a cell:
//
//	svc := thaplmagic.New(
//	    thaplmagic.WithPublisher(thaplmagic.NewJSONPublisher(os.Stdout)),
//	)
//
//	outcome, err := svc.RunCell(ctx, "-f svg -s 320,200", cellBody)
//	if err != nil {
//	    log.Fatal(err) // malformed cell arguments
//	}
//	fmt.Println(outcome.Status)
//
// The line argument uses the same flags as the notebook cell magic
// (-f/--format, -s/--size, -p/--package, -l/--library, ...). Only
// malformed arguments and infrastructure failures are returned as errors;
// LaTeX and conversion failures degrade the outcome and are reported on
// the diagnostic logger.
//
// # Render Pipeline
//
// Every run follows these stages:
//
//  1. Argument resolution into a RenderRequest
//  2. Document assembly (beamer + TikZ or CircuiTikZ + bashful)
//  3. LaTeX engine run with shell-escape inside a private workspace
//  4. Optional conversion: pdf2svg for svg, ImageMagick for jpg/jpeg
//  5. Publication of tikz.<format> (or the engine log on failure)
//  6. Workspace removal
//
// # Trust Boundary
//
// The generated document runs the Thapl interpreter through \bash with
// shell-escape enabled. Rendering a cell executes arbitrary commands with
// the privileges of the calling process. Only render trusted input.
//
// # External Tools
//
// The pipeline requires xelatex (with the bashful package), pdf2svg for svg
// output, ImageMagick for jpg output, and a python3 with the thapl module.
// Tool names are configurable with WithTools.
package thaplmagic
