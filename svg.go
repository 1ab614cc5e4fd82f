package thaplmagic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// FixSVGSize sets the width and height attributes of the root <svg>
// element, in pixels. With a nil size the viewBox dimensions are used,
// since some generators emit only a viewBox and browsers then scale the
// image to the container.
func FixSVGSize(data []byte, size *Size) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSVG, err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "svg" {
		return nil, fmt.Errorf("%w: root element is not <svg>", ErrInvalidSVG)
	}

	var width, height int
	if size != nil {
		width, height = size.Width, size.Height
	} else {
		var err error
		width, height, err = viewBoxSize(root.SelectAttrValue("viewBox", ""))
		if err != nil {
			return nil, err
		}
	}

	root.CreateAttr("width", strconv.Itoa(width)+"px")
	root.CreateAttr("height", strconv.Itoa(height)+"px")

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSVG, err)
	}
	return out, nil
}

// viewBoxSize returns the truncated width and height of a
// "min-x min-y width height" viewBox.
func viewBoxSize(viewBox string) (int, int, error) {
	fields := strings.FieldsFunc(viewBox, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n'
	})
	if len(fields) != 4 {
		return 0, 0, fmt.Errorf("%w: viewBox %q", ErrInvalidSVG, viewBox)
	}
	width, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: viewBox width %q", ErrInvalidSVG, fields[2])
	}
	height, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: viewBox height %q", ErrInvalidSVG, fields[3])
	}
	return int(width), int(height), nil
}
