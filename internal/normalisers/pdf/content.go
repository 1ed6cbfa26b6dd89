package pdf

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// tjSpaceThreshold is the TJ displacement (thousandths of a text unit) that
// is wide enough to read as a word gap.
const tjSpaceThreshold = -200

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokText
	tokNumber
	tokOther
	tokOperator
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

// DecodeContent recovers readable text from a decoded PDF page content
// stream. Strings shown with Tj, TJ, ' and " are emitted in stream order;
// line moves (Td, TD, T*, Tm) and the end of a text object start a new line.
func DecodeContent(stream []byte) string {
	s := &scanner{data: stream}
	var out strings.Builder
	var operands []token

	newline := func() {
		str := out.String()
		if str != "" && !strings.HasSuffix(str, "\n") {
			out.WriteByte('\n')
		}
	}
	lastText := func() string {
		for i := len(operands) - 1; i >= 0; i-- {
			if operands[i].kind == tokText {
				return operands[i].text
			}
		}
		return ""
	}

	for {
		tok := s.next()
		switch tok.kind {
		case tokEOF:
			return strings.TrimSpace(out.String())
		case tokOperator:
			switch tok.text {
			case "Tj", "TJ":
				out.WriteString(lastText())
			case "'", `"`:
				newline()
				out.WriteString(lastText())
			case "Td", "TD":
				if len(operands) >= 2 && operands[len(operands)-1].kind == tokNumber && operands[len(operands)-1].num == 0 {
					if str := out.String(); str != "" && !strings.HasSuffix(str, " ") && !strings.HasSuffix(str, "\n") {
						out.WriteByte(' ')
					}
				} else {
					newline()
				}
			case "T*", "Tm", "ET":
				newline()
			case "ID":
				s.skipInlineImage()
			}
			operands = operands[:0]
		default:
			operands = append(operands, tok)
		}
	}
}

type scanner struct {
	data []byte
	pos  int
}

func isWhitespace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return isWhitespace(c)
}

func (s *scanner) skipSpaceAndComments() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if isWhitespace(c) {
			s.pos++
			continue
		}
		if c == '%' {
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
			continue
		}
		return
	}
}

func (s *scanner) next() token {
	s.skipSpaceAndComments()
	if s.pos >= len(s.data) {
		return token{kind: tokEOF}
	}

	c := s.data[s.pos]
	switch {
	case c == '(':
		s.pos++
		return token{kind: tokText, text: s.literalString()}
	case c == '<' && s.peek(1) == '<':
		s.pos += 2
		return token{kind: tokOther}
	case c == '>' && s.peek(1) == '>':
		s.pos += 2
		return token{kind: tokOther}
	case c == '<':
		s.pos++
		return token{kind: tokText, text: s.hexString()}
	case c == '[':
		s.pos++
		return token{kind: tokText, text: s.array()}
	case c == '/':
		s.pos++
		s.regular()
		return token{kind: tokOther}
	case c == ']' || c == ')' || c == '>' || c == '{' || c == '}':
		s.pos++
		return token{kind: tokOther}
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		word := s.regular()
		if n, err := strconv.ParseFloat(word, 64); err == nil {
			return token{kind: tokNumber, num: n}
		}
		return token{kind: tokOperator, text: word}
	default:
		return token{kind: tokOperator, text: s.regular()}
	}
}

func (s *scanner) peek(offset int) byte {
	if s.pos+offset < len(s.data) {
		return s.data[s.pos+offset]
	}
	return 0
}

// regular consumes a run of regular characters.
func (s *scanner) regular() string {
	start := s.pos
	for s.pos < len(s.data) && !isDelimiter(s.data[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		// Lone delimiter; consume it to guarantee progress.
		s.pos++
	}
	return string(s.data[start:s.pos])
}

// literalString reads a (...) string after the opening parenthesis.
func (s *scanner) literalString() string {
	var buf []byte
	depth := 1
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '\\':
			if s.pos >= len(s.data) {
				return decodeBytes(buf)
			}
			e := s.data[s.pos]
			s.pos++
			switch e {
			case 'n':
				buf = append(buf, '\n')
			case 'r':
				buf = append(buf, '\r')
			case 't':
				buf = append(buf, '\t')
			case 'b':
				buf = append(buf, '\b')
			case 'f':
				buf = append(buf, '\f')
			case '\r':
				if s.pos < len(s.data) && s.data[s.pos] == '\n' {
					s.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && s.pos < len(s.data); i++ {
						d := s.data[s.pos]
						if d < '0' || d > '7' {
							break
						}
						v = v*8 + int(d-'0')
						s.pos++
					}
					buf = append(buf, byte(v))
				} else {
					buf = append(buf, e)
				}
			}
		case '(':
			depth++
			buf = append(buf, c)
		case ')':
			depth--
			if depth == 0 {
				return decodeBytes(buf)
			}
			buf = append(buf, c)
		default:
			buf = append(buf, c)
		}
	}
	return decodeBytes(buf)
}

// hexString reads a <...> string after the opening bracket.
func (s *scanner) hexString() string {
	var buf []byte
	var hi byte
	half := false
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		if c == '>' {
			break
		}
		v, ok := hexValue(c)
		if !ok {
			continue
		}
		if half {
			buf = append(buf, hi<<4|v)
		} else {
			hi = v
		}
		half = !half
	}
	if half {
		buf = append(buf, hi<<4)
	}
	return decodeBytes(buf)
}

// array reads a TJ array after the opening bracket, joining its strings and
// turning wide negative displacements into spaces.
func (s *scanner) array() string {
	var b strings.Builder
	for {
		s.skipSpaceAndComments()
		if s.pos >= len(s.data) {
			return b.String()
		}
		if s.data[s.pos] == ']' {
			s.pos++
			return b.String()
		}
		tok := s.next()
		switch tok.kind {
		case tokText:
			b.WriteString(tok.text)
		case tokNumber:
			if tok.num < tjSpaceThreshold {
				b.WriteByte(' ')
			}
		case tokEOF:
			return b.String()
		}
	}
}

// skipInlineImage skips inline image data up to the EI operator.
func (s *scanner) skipInlineImage() {
	for s.pos+2 <= len(s.data) {
		if s.data[s.pos] == 'E' && s.data[s.pos+1] == 'I' &&
			(s.pos == 0 || isWhitespace(s.data[s.pos-1])) &&
			(s.pos+2 == len(s.data) || isDelimiter(s.data[s.pos+2])) {
			s.pos += 2
			return
		}
		s.pos++
	}
	s.pos = len(s.data)
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// decodeBytes interprets string bytes as UTF-16BE when marked or when every
// high byte is zero, and as Latin-1 otherwise. Control characters other than
// tab and newline are dropped.
func decodeBytes(b []byte) string {
	var runes []rune
	switch {
	case len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF:
		runes = utf16.Decode(toUint16(b[2:]))
	case len(b) >= 2 && len(b)%2 == 0 && highBytesZero(b):
		runes = utf16.Decode(toUint16(b))
	default:
		runes = make([]rune, len(b))
		for i, c := range b {
			runes[i] = rune(c)
		}
	}

	var out strings.Builder
	for _, r := range runes {
		if r < 0x20 && r != '\n' && r != '\t' {
			continue
		}
		if r == '\t' {
			r = ' '
		}
		out.WriteRune(r)
	}
	return out.String()
}

func highBytesZero(b []byte) bool {
	for i := 0; i < len(b); i += 2 {
		if b[i] != 0 {
			return false
		}
	}
	return true
}

func toUint16(b []byte) []uint16 {
	u := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return u
}
