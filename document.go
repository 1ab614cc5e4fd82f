package thaplmagic

import (
	"strings"
)

// Workspace file names. The engine runs on documentFileName, so \jobname
// is "magic" and the interpreter output lands in magic.thapl.tex.
const (
	sourceFileName   = "magic.thapl"
	documentFileName = "magic.tex"
	logFileName      = "thapl.log"
	pdfFileName      = "magic.pdf"
	pngFileName      = "magic.png"
	svgFileName      = "magic.svg"
	jpgFileName      = "magic.jpg"
)

// DefaultArtifactName is the base name of the published image, tikz.<format>.
const DefaultArtifactName = "tikz"

// DefaultRendererCommand runs the Thapl interpreter.
const DefaultRendererCommand = "python3 -m thapl.main"

// Renderer configures the Thapl interpreter call embedded in the document.
type Renderer struct {
	Command    string // interpreter command line, source path appended
	PythonPath string // exported as PYTHONPATH for the command when set
}

// Section names, in document order.
const (
	SectionClass    = "class"
	SectionTikZ     = "tikz"
	SectionAux      = "aux"
	SectionPackage  = "package"
	SectionLibrary  = "library"
	SectionPreamble = "preamble"
	SectionBegin    = "begin"
	SectionRenderer = "renderer"
	SectionEnd      = "end"
)

const (
	documentClass    = "beamer"
	auxiliaryPackage = "bashful" // provides \bash ... \END
)

// Section is one named block of LaTeX text.
type Section struct {
	Name string
	Text string
}

// Document is an ordered list of sections. User supplied text is kept
// verbatim; nothing is escaped.
type Document struct {
	sections []Section
}

// Add appends a section.
func (d *Document) Add(name, text string) {
	d.sections = append(d.sections, Section{Name: name, Text: text})
}

// Sections returns a copy of the sections in order.
func (d *Document) Sections() []Section {
	out := make([]Section, len(d.sections))
	copy(out, d.sections)
	return out
}

// String renders the document, one section per line block.
func (d *Document) String() string {
	var b strings.Builder
	for _, s := range d.sections {
		b.WriteString(s.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// AssembleDocument builds the LaTeX document for req.
func AssembleDocument(req *RenderRequest, r Renderer) *Document {
	tikzPackage := "tikz"
	if req.CircuiTikZ {
		tikzPackage = "circuitikz"
	}

	var doc Document
	doc.Add(SectionClass, `\documentclass{`+documentClass+`}`)
	doc.Add(SectionTikZ, `\usepackage[`+req.TikZOptions+`]{`+tikzPackage+`}`)
	doc.Add(SectionAux, `\usepackage{`+auxiliaryPackage+`}`)
	for _, pkg := range req.Packages {
		doc.Add(SectionPackage, `\usepackage{`+pkg+`}`)
	}
	for _, lib := range req.Libraries {
		doc.Add(SectionLibrary, `\usetikzlibrary{`+lib+`}`)
	}
	if req.Preamble != "" {
		doc.Add(SectionPreamble, req.Preamble)
	}
	doc.Add(SectionBegin, `\begin{document}`)
	doc.Add(SectionRenderer, rendererBlock(r))
	doc.Add(SectionEnd, `\end{document}`)
	return &doc
}

// rendererBlock runs the interpreter through bashful during compilation and
// includes its output. Requires shell-escape.
func rendererBlock(r Renderer) string {
	command := r.Command
	if command == "" {
		command = DefaultRendererCommand
	}
	if r.PythonPath != "" {
		command = `PYTHONPATH="` + r.PythonPath + `" ` + command
	}

	var b strings.Builder
	b.WriteString(`\bash[stdoutFile=\jobname.thapl.tex]` + "\n")
	b.WriteString(command + " ./" + sourceFileName + "\n")
	b.WriteString(`\END` + "\n")
	b.WriteString("\n")
	b.WriteString(`\include{\jobname.thapl}`)
	return b.String()
}
