package pinspec

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Type is the type of a lexical item.
//
type Type int

// Tokens
const (
	EOF Type = iota
	Raw
	Ident
	BracketOpen
	BracketClose
	Comma
	Int
	Range
	Equal
)

var typeNames = [...]string{"end of input", "character", "identifier", "'['", "']'", "','", "integer", "'..'", "'='"}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "token(" + strconv.Itoa(int(t)) + ")"
}

// Pos is a byte offset in the input.
type Pos int

// Item is a lexical item. Value is a string for identifiers and raw
// characters, a uint64 for integers.
//
type Item struct {
	Type  Type
	Pos   Pos
	Value interface{}
}

func (i Item) String() string {
	switch i.Type {
	case Ident:
		return "identifier " + strconv.Quote(i.Value.(string))
	case Int:
		return "integer " + strconv.FormatUint(i.Value.(uint64), 10)
	case Raw:
		return "character " + strconv.Quote(i.Value.(string))
	}
	return i.Type.String()
}

// stateFn lexes from the current position and returns the next state, or nil
// to go back to the initial state.
type stateFn func(l *lexer) stateFn

type lexer struct {
	input string
	start int
	pos   int
	width int
	items []Item
	state stateFn
}

const eof = -1

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += w
	l.width = w
	return r
}

func (l *lexer) backup() { l.pos -= l.width }

func (l *lexer) emit(t Type, v interface{}) {
	l.items = append(l.items, Item{t, Pos(l.start), v})
	l.start = l.pos
}

func (l *lexer) ignore() { l.start = l.pos }

// Lex returns the next item.
//
func (l *lexer) Lex() Item {
	for len(l.items) == 0 {
		if l.state == nil {
			l.state = lexInit
		}
		l.state = l.state(l)
	}
	it := l.items[0]
	l.items = l.items[1:]
	return it
}

func lexInit(l *lexer) stateFn {
	r := l.next()
	switch {
	case r == eof:
		return lexEOF
	case unicode.IsSpace(r):
		for unicode.IsSpace(r) {
			r = l.next()
		}
		l.backup()
		l.ignore()
	case unicode.IsLetter(r) || r == '_':
		return lexIdent
	case r == '[':
		l.emit(BracketOpen, "[")
	case r == ']':
		l.emit(BracketClose, "]")
	case r == ',':
		l.emit(Comma, ",")
	case '0' <= r && r <= '9':
		return lexNumber
	case r == '=':
		l.emit(Equal, "=")
	case r == '.':
		if l.next() == '.' {
			l.emit(Range, "..")
			break
		}
		l.backup()
		fallthrough
	default:
		l.emit(Raw, string(r))
		return lexEOF
	}
	return nil
}

func isDigit(base int) func(r rune) bool {
	switch base {
	case 2:
		return func(r rune) bool { return r == '0' || r == '1' }
	case 16:
		return func(r rune) bool {
			return '0' <= r && r <= '9' || 'a' <= r && r <= 'f' || 'A' <= r && r <= 'F'
		}
	}
	return func(r rune) bool { return '0' <= r && r <= '9' }
}

// lexNumber lexes decimal, 0x hexadecimal and 0b binary integers.
func lexNumber(l *lexer) stateFn {
	base := 10
	digits := l.start
	if l.input[l.start] == '0' {
		switch r := l.next(); r {
		case 'x', 'X':
			base, digits = 16, l.pos
		case 'b', 'B':
			base, digits = 2, l.pos
		default:
			l.backup()
		}
	}
	ok := isDigit(base)
	r := l.next()
	for ok(r) {
		r = l.next()
	}
	l.backup()
	if l.pos == digits {
		l.emit(Raw, l.input[l.start:l.pos])
		return lexEOF
	}
	v, err := strconv.ParseUint(l.input[digits:l.pos], base, 64)
	if err != nil {
		l.emit(Raw, l.input[l.start:l.pos])
		return lexEOF
	}
	l.emit(Int, v)
	return nil
}

func lexIdent(l *lexer) stateFn {
	r := l.next()
	for unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
		r = l.next()
	}
	l.backup()
	l.emit(Ident, l.input[l.start:l.pos])
	return nil
}

// lexEOF places the lexer in End-Of-File state.
// Once in this state, the lexer will only emit EOF.
//
func lexEOF(l *lexer) stateFn {
	l.start = l.pos
	l.emit(EOF, "end of input")
	return lexEOF
}
