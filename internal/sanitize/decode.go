package sanitize

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// Sentinel errors for decoder construction.
var (
	ErrNoEncodings     = errors.New("encoding candidate list cannot be empty")
	ErrUnknownEncoding = errors.New("unknown encoding")
	ErrNoTotalFallback = errors.New("last encoding candidate must decode every byte value")
)

var errRejected = errors.New("input rejected by encoding")

// utf8BOM is stripped from the start of UTF-8 input.
const utf8BOM = "\uFEFF"

// DefaultEncodings returns the candidate list used when none is configured.
func DefaultEncodings() []string {
	return []string{"utf-8", "windows-1252", "iso-8859-1"}
}

// Encoding is one named decode candidate.
type Encoding struct {
	Name string
	enc  encoding.Encoding
	// undefined marks unassigned byte values. Nil unless enc is a
	// single-byte charmap.
	undefined *[256]bool
}

// LookupEncoding resolves a name to an Encoding. The common spellings of the
// default candidates are recognized directly; anything else goes through the
// IANA registry.
func LookupEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		return newEncoding("utf-8", unicode.UTF8), nil
	case "windows-1252", "cp1252":
		return newEncoding("windows-1252", charmap.Windows1252), nil
	case "iso-8859-1", "latin-1", "latin1":
		return newEncoding("iso-8859-1", charmap.ISO8859_1), nil
	}

	enc, err := ianaindex.IANA.Encoding(strings.TrimSpace(name))
	if err != nil || enc == nil {
		return Encoding{}, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil {
		canonical = name
	}
	return newEncoding(strings.ToLower(canonical), enc), nil
}

func newEncoding(name string, enc encoding.Encoding) Encoding {
	e := Encoding{Name: name, enc: enc}
	if cm, ok := enc.(*charmap.Charmap); ok {
		e.undefined = undefinedBytes(cm)
	}
	return e
}

// undefinedBytes returns the byte values cm leaves unassigned. Some tables
// fill the gaps of the 0x80-0x9F block with C1 controls; when that block also
// holds printable characters, its C1 controls are placeholders rather than
// assignments (windows-1252 0x81, 0x8D, 0x8F, 0x90, 0x9D).
func undefinedBytes(cm *charmap.Charmap) *[256]bool {
	placeholders := false
	for b := 0x80; b <= 0x9F; b++ {
		if r := cm.DecodeByte(byte(b)); r != utf8.RuneError && !isC1(r) {
			placeholders = true
			break
		}
	}

	var undef [256]bool
	for b := range 256 {
		r := cm.DecodeByte(byte(b))
		undef[b] = r == utf8.RuneError || (placeholders && isC1(r))
	}
	return &undef
}

func isC1(r rune) bool { return r >= 0x80 && r <= 0x9F }

// Total reports whether e decodes every byte sequence.
func (e Encoding) Total() bool {
	if e.undefined == nil {
		return false
	}
	for _, u := range e.undefined {
		if u {
			return false
		}
	}
	return true
}

// decode returns the text of b under e, or an error when e rejects b.
func (e Encoding) decode(b []byte) (string, error) {
	if e.enc == unicode.UTF8 {
		if !utf8.Valid(b) {
			return "", errRejected
		}
		return strings.TrimPrefix(string(b), utf8BOM), nil
	}

	if e.undefined != nil {
		for _, c := range b {
			if e.undefined[c] {
				return "", errRejected
			}
		}
	}

	out, err := e.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	// Multi-byte decoders substitute U+FFFD for invalid sequences instead of
	// failing.
	if e.undefined == nil && !utf8.Valid(b) && strings.ContainsRune(string(out), utf8.RuneError) {
		return "", errRejected
	}
	return string(out), nil
}

// Decoder tries an ordered list of encodings. It is immutable and safe for
// concurrent use.
type Decoder struct {
	candidates []Encoding
}

// NewDecoder builds a Decoder over names, in order. The last candidate must
// be total, which makes Decode total.
func NewDecoder(names ...string) (*Decoder, error) {
	if len(names) == 0 {
		return nil, ErrNoEncodings
	}
	d := &Decoder{candidates: make([]Encoding, 0, len(names))}
	for _, name := range names {
		e, err := LookupEncoding(name)
		if err != nil {
			return nil, err
		}
		d.candidates = append(d.candidates, e)
	}
	if last := d.candidates[len(d.candidates)-1]; !last.Total() {
		return nil, fmt.Errorf("%w: %s", ErrNoTotalFallback, last.Name)
	}
	return d, nil
}

// DefaultDecoder returns a Decoder over DefaultEncodings.
func DefaultDecoder() *Decoder {
	d, err := NewDecoder(DefaultEncodings()...)
	if err != nil {
		panic("sanitize: default encodings are invalid: " + err.Error())
	}
	return d
}

// Names returns the candidate names in trial order.
func (d *Decoder) Names() []string {
	names := make([]string, len(d.candidates))
	for i, c := range d.candidates {
		names[i] = c.Name
	}
	return names
}

// Decode returns b as text together with the name of the encoding that
// accepted it. A single-byte candidate may accept bytes that were meant as
// another encoding; the first acceptance wins regardless.
func (d *Decoder) Decode(b []byte) (text, encodingName string) {
	for _, c := range d.candidates {
		if s, err := c.decode(b); err == nil {
			return s, c.Name
		}
	}
	// Unreachable while the last candidate is total.
	last := d.candidates[len(d.candidates)-1]
	return strings.ToValidUTF8(string(b), "\uFFFD"), last.Name
}
