package thaplmagic

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseLine_Defaults(t *testing.T) {
	t.Parallel()

	req, err := ParseLine("", "\\node {x};")
	if err != nil {
		t.Fatalf("ParseLine() unexpected error: %v", err)
	}

	want := &RenderRequest{
		Scale:       "1",
		Size:        Size{Width: 400, Height: 240},
		Format:      "png",
		Encoding:    "utf-8",
		ImageMagick: "convert",
		Source:      "\\node {x};",
	}
	if !reflect.DeepEqual(req, want) {
		t.Errorf("ParseLine() = %+v, want %+v", req, want)
	}
}

func TestParseLine_Flags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		line  string
		check func(t *testing.T, r *RenderRequest)
	}{
		{
			name: "long flags",
			line: `--scale 2 --size 320,200 --format svg --encoding latin1 --save /tmp/out.svg`,
			check: func(t *testing.T, r *RenderRequest) {
				if r.Scale != "2" || r.Size != (Size{320, 200}) || r.Format != "svg" ||
					r.Encoding != "latin1" || r.SavePath != "/tmp/out.svg" {
					t.Errorf("unexpected request: %+v", r)
				}
			},
		},
		{
			name: "single letter shorthands",
			line: `-s 10,20 -f jpg -e utf8 -x '\def\a{1}' -p pgfplots,textcomp -l matrix,arrows -S out.jpg -i "magick convert"`,
			check: func(t *testing.T, r *RenderRequest) {
				if r.Size != (Size{10, 20}) || r.Format != "jpg" || r.Encoding != "utf8" {
					t.Errorf("unexpected request: %+v", r)
				}
				if r.Preamble != `\def\a{1}` {
					t.Errorf("Preamble = %q", r.Preamble)
				}
				if !reflect.DeepEqual(r.Packages, []string{"pgfplots", "textcomp"}) {
					t.Errorf("Packages = %q", r.Packages)
				}
				if !reflect.DeepEqual(r.Libraries, []string{"matrix", "arrows"}) {
					t.Errorf("Libraries = %q", r.Libraries)
				}
				if r.SavePath != "out.jpg" || r.ImageMagick != "magick convert" {
					t.Errorf("SavePath = %q, ImageMagick = %q", r.SavePath, r.ImageMagick)
				}
			},
		},
		{
			name: "two letter shorthands",
			line: `-sc 1.5 -po "scale=2" -ct`,
			check: func(t *testing.T, r *RenderRequest) {
				if r.Scale != "1.5" || r.PictureOptions != "scale=2" || !r.CircuiTikZ {
					t.Errorf("unexpected request: %+v", r)
				}
				if r.Size != (Size{400, 240}) {
					t.Errorf("-sc leaked into --size: %+v", r.Size)
				}
			},
		},
		{
			name: "two letter shorthand with equals",
			line: `-sc=3 -po=thick`,
			check: func(t *testing.T, r *RenderRequest) {
				if r.Scale != "3" || r.PictureOptions != "thick" {
					t.Errorf("unexpected request: %+v", r)
				}
			},
		},
		{
			name: "boolean flags",
			line: `--showlatex --circuitikz --tikzoptions siunitx`,
			check: func(t *testing.T, r *RenderRequest) {
				if !r.ShowLaTeX || !r.CircuiTikZ || r.TikZOptions != "siunitx" {
					t.Errorf("unexpected request: %+v", r)
				}
			},
		},
		{
			name: "opaque format passes through",
			line: `-f webp`,
			check: func(t *testing.T, r *RenderRequest) {
				if r.Format != "webp" {
					t.Errorf("Format = %q, want webp", r.Format)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req, err := ParseLine(tt.line, "")
			if err != nil {
				t.Fatalf("ParseLine(%q) unexpected error: %v", tt.line, err)
			}
			tt.check(t, req)
		})
	}
}

func TestParseLine_InlineCodePrepended(t *testing.T) {
	t.Parallel()

	req, err := ParseLine(`-f svg "a " b`, "cell body")
	if err != nil {
		t.Fatalf("ParseLine() unexpected error: %v", err)
	}
	if req.Source != "a bcell body" {
		t.Errorf("Source = %q, want %q", req.Source, "a bcell body")
	}
}

func TestParseLine_Size(t *testing.T) {
	t.Parallel()

	valid := []struct {
		size string
		want Size
	}{
		{"400,240", Size{400, 240}},
		{"1,1", Size{1, 1}},
		{"320, 200", Size{320, 200}},
		{"4096,2160", Size{4096, 2160}},
	}
	for _, tt := range valid {
		t.Run(tt.size, func(t *testing.T) {
			t.Parallel()

			req, err := ParseArgs([]string{"--size", tt.size}, "")
			if err != nil {
				t.Fatalf("ParseArgs(--size %q) unexpected error: %v", tt.size, err)
			}
			if req.Size != tt.want {
				t.Errorf("Size = %+v, want %+v", req.Size, tt.want)
			}
		})
	}

	invalid := []string{"", "400", "400,", ",240", "a,b", "400x240", "1,2,3", "0,10", "4.5,3"}
	for _, size := range invalid {
		t.Run("invalid "+size, func(t *testing.T) {
			t.Parallel()

			_, err := ParseArgs([]string{"--size", size}, "")
			if !errors.Is(err, ErrInvalidArguments) {
				t.Errorf("ParseArgs(--size %q) = %v, want ErrInvalidArguments", size, err)
			}
			if !errors.Is(err, ErrInvalidSize) {
				t.Errorf("ParseArgs(--size %q) = %v, want ErrInvalidSize", size, err)
			}
		})
	}
}

func TestParseLine_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		line    string
		wantErr error
	}{
		{name: "unknown flag", line: "--bogus"},
		{name: "missing value", line: "--format"},
		{name: "unbalanced quote", line: `-x "open`},
		{name: "help", line: "--help"},
		{name: "trailing backslash", line: `-x foo\`},
		{name: "flag as package value", line: "-p -ct"},
		{name: "flag as preamble value", line: "-x --showlatex"},
		{name: "dash prefixed size", line: "-s -5,10"},
		{name: "negative scale is a value", line: "-sc -2", wantErr: ErrInvalidScale},
		{name: "non numeric scale", line: "-sc big", wantErr: ErrInvalidScale},
		{name: "unknown encoding", line: "-e klingon", wantErr: ErrUnknownEncoding},
		{name: "unsafe format", line: "-f ../png", wantErr: ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseLine(tt.line, "")
			if !errors.Is(err, ErrInvalidArguments) {
				t.Fatalf("ParseLine(%q) = %v, want ErrInvalidArguments", tt.line, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseLine(%q) = %v, want %v", tt.line, err, tt.wantErr)
			}
		})
	}
}

func TestParseArgs_DefaultsOverride(t *testing.T) {
	t.Parallel()

	d := Defaults{Format: "svg", Size: "100,50", ImageMagick: "magick"}
	req, err := parseArgs(nil, "", d)
	if err != nil {
		t.Fatalf("parseArgs() unexpected error: %v", err)
	}
	if req.Format != "svg" || req.Size != (Size{100, 50}) || req.ImageMagick != "magick" || req.Encoding != "utf-8" {
		t.Errorf("unexpected request: %+v", req)
	}

	req, err = parseArgs([]string{"-f", "png"}, "", d)
	if err != nil {
		t.Fatalf("parseArgs() unexpected error: %v", err)
	}
	if req.Format != "png" {
		t.Errorf("cell flag did not win over defaults: %q", req.Format)
	}
}

func TestExpandShorthands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr bool
	}{
		{
			name: "rewrites two letter shorthands",
			args: []string{"-sc", "2", "-s", "1,1", "-ct", "-po=x", "--", "-sc"},
			want: []string{"--scale", "2", "-s", "1,1", "--circuitikz", "--pictureoptions=x", "--", "-sc"},
		},
		{
			name:    "value that looks like a shorthand",
			args:    []string{"-x", "-ct"},
			wantErr: true,
		},
		{
			name: "negative number value",
			args: []string{"-po", "-1.5", "-ct"},
			want: []string{"--pictureoptions", "-1.5", "--circuitikz"},
		},
		{
			name: "boolean flag does not consume",
			args: []string{"--showlatex", "-sc", "3"},
			want: []string{"--showlatex", "--scale", "3"},
		},
		{
			name: "dangling value flag",
			args: []string{"-f"},
			want: []string{"-f"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var f cellFlags
			got, err := expandShorthands(newCellFlagSet(&f, Defaults{}), tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expandShorthands(%q) = %q, want error", tt.args, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("expandShorthands(%q) unexpected error: %v", tt.args, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expandShorthands() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLine_Quoting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		line         string
		wantPreamble string
	}{
		{"double quoted macro", `-x "\usepackage{amsmath}"`, `\usepackage{amsmath}`},
		{"nested macros", `-x "\newcommand{\foo}{1}"`, `\newcommand{\foo}{1}`},
		{"single quoted macro", `-x '\usetikzlibrary{calc}'`, `\usetikzlibrary{calc}`},
		{"escaped quote", `-x "\def\q{\"}"`, `\def\q{"}`},
		{"escaped backslash", `-x "a\\b"`, `a\b`},
		{"unquoted backslash escapes", `-x \relax;`, `relax;`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req, err := ParseLine(tt.line, "")
			if err != nil {
				t.Fatalf("ParseLine(%q) unexpected error: %v", tt.line, err)
			}
			if req.Preamble != tt.wantPreamble {
				t.Errorf("Preamble = %q, want %q", req.Preamble, tt.wantPreamble)
			}
		})
	}
}

func TestCellUsage(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	CellUsage(&b)
	for _, flag := range []string{"--scale", "--size", "--format", "--showlatex", "--circuitikz", "--tikzoptions"} {
		if !strings.Contains(b.String(), flag) {
			t.Errorf("usage missing %s:\n%s", flag, b.String())
		}
	}
}
