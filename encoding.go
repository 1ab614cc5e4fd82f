package thaplmagic

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// asciiNames are the labels resolved to strict 7-bit ASCII. WHATWG maps
// them to windows-1252, which would accept bytes ASCII cannot hold.
var asciiNames = map[string]bool{
	"ascii":          true,
	"us-ascii":       true,
	"us":             true,
	"csascii":        true,
	"iso646-us":      true,
	"ansi_x3.4-1968": true,
	"ansi_x3.4-1986": true,
	"646":            true,
}

// lookupEncoding resolves an encoding name such as "utf-8" or "latin1".
// ASCII labels come first, then IANA names, then WHATWG labels, so that
// "latin1" means ISO-8859-1 and not its windows-1252 superset.
func lookupEncoding(name string) (encoding.Encoding, error) {
	label := strings.ToLower(strings.TrimSpace(name))
	if label == "" {
		return nil, fmt.Errorf("%w: empty name", ErrUnknownEncoding)
	}
	if asciiNames[label] {
		return asciiEncoding{}, nil
	}
	// ianaindex returns a nil encoding without error for names it knows
	// but cannot encode.
	if enc, err := ianaindex.IANA.Encoding(label); err == nil && enc != nil {
		return enc, nil
	}
	if enc, err := htmlindex.Get(label); err == nil {
		return enc, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
}

// encodeText converts UTF-8 text to the named encoding.
// Characters the encoding cannot represent are an error.
func encodeText(name, text string) ([]byte, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	out, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("encoding text as %s: %w", name, err)
	}
	return out, nil
}

var errNotASCII = errors.New("byte outside 7-bit ASCII")

// asciiEncoding passes 7-bit bytes through and rejects everything else in
// both directions.
type asciiEncoding struct{}

func (asciiEncoding) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: asciiOnly{}}
}

func (asciiEncoding) NewEncoder() *encoding.Encoder {
	return &encoding.Encoder{Transformer: asciiOnly{}}
}

type asciiOnly struct{ transform.NopResetter }

func (asciiOnly) Transform(dst, src []byte, _ bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		c := src[nSrc]
		if c >= utf8.RuneSelf {
			return nDst, nSrc, errNotASCII
		}
		if nDst >= len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		dst[nDst] = c
		nDst++
		nSrc++
	}
	return nDst, nSrc, nil
}
