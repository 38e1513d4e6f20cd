package sequence

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokLParen
	tokRParen
	tokComma
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokString:
		return "string"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	default:
		return "','"
	}
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

var operators = map[string]Kind{
	"seq":       KindSeq,
	"randomize": KindRandomize,
	"shuffle":   KindShuffle,
	"anyof":     KindAnyOf,
}

// assignment matches a leading `var shuffleSequence =` so that lines copied
// from a JavaScript experiment file parse unchanged.
var assignment = regexp.MustCompile(`^\s*(?:(?:var|let|const)\s+)?[A-Za-z_$][\w$]*\s*=`)

// Parse reads the textual form of an expression.
// Group labels may be quoted with double or single quotes, or written bare.
func Parse(src string) (Expr, error) {
	src = strings.TrimSpace(src)
	src = strings.TrimSpace(strings.TrimSuffix(src, ";"))
	if loc := assignment.FindStringIndex(src); loc != nil {
		src = src[loc[1]:]
	}

	p := &parser{src: src}
	if err := p.next(); err != nil {
		return Expr{}, err
	}
	if p.tok.kind == tokEOF {
		return Expr{}, fmt.Errorf("%w: empty expression", ErrInvalidExpression)
	}
	e, err := p.parseExpr()
	if err != nil {
		return Expr{}, err
	}
	if p.tok.kind != tokEOF {
		return Expr{}, p.errorf("unexpected %s after expression", p.tok.kind)
	}
	if err := Check(e); err != nil {
		return Expr{}, err
	}
	return e, nil
}

// MustParse is like Parse but panics on error. Intended for static expressions.
func MustParse(src string) Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

type parser struct {
	src string
	pos int
	tok token
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: at offset %d: %s", ErrInvalidExpression, p.tok.pos, fmt.Sprintf(format, args...))
}

func (p *parser) parseExpr() (Expr, error) {
	switch p.tok.kind {
	case tokString:
		label := p.tok.text
		if err := p.next(); err != nil {
			return Expr{}, err
		}
		return Group(label), nil
	case tokIdent:
		name := p.tok.text
		if err := p.next(); err != nil {
			return Expr{}, err
		}
		if p.tok.kind != tokLParen {
			return Group(name), nil
		}
		kind, ok := operators[strings.ToLower(name)]
		if !ok {
			return Expr{}, p.errorf("unknown operator %q", name)
		}
		if err := p.next(); err != nil {
			return Expr{}, err
		}
		args, err := p.parseArgs()
		if err != nil {
			return Expr{}, err
		}
		return Expr{Kind: kind, Children: args}, nil
	default:
		return Expr{}, p.errorf("unexpected %s", p.tok.kind)
	}
}

// parseArgs consumes a comma separated list up to and including ')'.
func (p *parser) parseArgs() ([]Expr, error) {
	var args []Expr
	for {
		if p.tok.kind == tokRParen {
			return args, p.next()
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		switch p.tok.kind {
		case tokComma:
			if err := p.next(); err != nil {
				return nil, err
			}
		case tokRParen:
		default:
			return nil, p.errorf("expected ',' or ')', got %s", p.tok.kind)
		}
	}
}

func (p *parser) next() error {
	p.skipSpace()
	start := p.pos
	if p.pos >= len(p.src) {
		p.tok = token{kind: tokEOF, pos: start}
		return nil
	}

	c := p.src[p.pos]
	switch c {
	case '(':
		p.pos++
		p.tok = token{kind: tokLParen, pos: start}
	case ')':
		p.pos++
		p.tok = token{kind: tokRParen, pos: start}
	case ',':
		p.pos++
		p.tok = token{kind: tokComma, pos: start}
	case '"', '\'':
		text, err := p.readQuoted(c)
		if err != nil {
			return err
		}
		p.tok = token{kind: tokString, text: text, pos: start}
	default:
		text := p.readIdent()
		if text == "" {
			r, _ := utf8.DecodeRuneInString(p.src[p.pos:])
			p.tok = token{pos: start}
			return p.errorf("unexpected character %q", r)
		}
		p.tok = token{kind: tokIdent, text: text, pos: start}
	}
	return nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if unicode.IsSpace(r) {
			p.pos += size
			continue
		}
		// Line comments, as found in experiment files.
		if strings.HasPrefix(p.src[p.pos:], "//") {
			if nl := strings.IndexByte(p.src[p.pos:], '\n'); nl >= 0 {
				p.pos += nl + 1
			} else {
				p.pos = len(p.src)
			}
			continue
		}
		return
	}
}

func (p *parser) readQuoted(quote byte) (string, error) {
	start := p.pos
	p.pos++ // opening quote
	var sb strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '\\' && p.pos+1 < len(p.src):
			next := p.src[p.pos+1]
			if next == '\'' || next == '"' {
				sb.WriteByte(next)
				p.pos += 2
				continue
			}
			value, multibyte, tail, err := strconv.UnquoteChar(p.src[p.pos:], quote)
			if err != nil {
				// Unknown escapes keep the escaped character.
				_, size := utf8.DecodeRuneInString(p.src[p.pos+1:])
				sb.WriteString(p.src[p.pos+1 : p.pos+1+size])
				p.pos += 1 + size
				continue
			}
			if multibyte {
				sb.WriteRune(value)
			} else {
				sb.WriteByte(byte(value))
			}
			p.pos = len(p.src) - len(tail)
		case c == quote:
			p.pos++
			return sb.String(), nil
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	p.tok = token{pos: start}
	return "", p.errorf("unterminated string")
}

func (p *parser) readIdent() string {
	start := p.pos
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !isIdentRune(r) {
			break
		}
		p.pos += size
	}
	return p.src[start:p.pos]
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_-./$#", r)
}
