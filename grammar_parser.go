package parsley

import (
	"fmt"
	"strconv"
	"strings"
)

// GrammarParser reads grammars written in the text syntax:
//
//	Expr   : Term (("+" | "-") Term)* ;
//	Term   : @digits | "(" Expr ")" ;  # comments run until the end of the line
//
// Rule bodies are made of literals, `@builtin` terminals, references
// to other rules, grouping and the `?`, `*` and `+` suffixes.
// Alternatives are separated by `|`.
type GrammarParser struct {
	BaseParser
}

func NewGrammarParser(grammar []byte) *GrammarParser {
	p := &GrammarParser{}
	p.SetInput(string(grammar))
	return p
}

// Parse kicks off parsing the input and assembles the rules it
// defines into a grammar.  The first definition is the start rule.
func (p *GrammarParser) Parse() (*Grammar, error) {
	rules, err := p.ParseGrammar()
	if err != nil {
		if isthrown(err) {
			return nil, err
		}
		return nil, p.FurthestError()
	}
	return NewGrammar(rules[0].Name(), rules...)
}

// GR: Grammar <- Spacing Definition+ EOF
func (p *GrammarParser) ParseGrammar() ([]*Rule, error) {
	p.ParseSpacing()
	defs, err := oneOrMore(p, func(p Parser) (*Rule, error) {
		return p.(*GrammarParser).ParseDefinition()
	})
	if err != nil {
		return nil, err
	}
	if p.Peek() != eof {
		return nil, p.NewError("end of input")
	}
	return defs, nil
}

// GR: Definition <- Identifier COLON Expression SEMICOLON
func (p *GrammarParser) ParseDefinition() (*Rule, error) {
	name, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	p.ParseSpacing()
	if _, err := p.ExpectRune(':'); err != nil {
		return nil, err
	}
	p.ParseSpacing()
	expr, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.ExpectRune(';'); err != nil {
		return nil, err
	}
	p.ParseSpacing()
	return NewRule(name, expr), nil
}

// GR: Expression <- Sequence (PIPE Sequence)*
func (p *GrammarParser) ParseExpression() (Expr, error) {
	head, err := p.ParseSequence()
	if err != nil {
		return nil, err
	}
	tail, err := zeroOrMore(p, func(p Parser) (Expr, error) {
		if _, err := p.ExpectRune('|'); err != nil {
			return nil, err
		}
		p.(*GrammarParser).ParseSpacing()
		return p.(*GrammarParser).ParseSequence()
	})
	if err != nil {
		return nil, err
	}
	if len(tail) == 0 {
		return head, nil
	}
	return Alt(append([]Expr{head}, tail...)...), nil
}

// GR: Sequence <- Suffix+
func (p *GrammarParser) ParseSequence() (Expr, error) {
	items, err := oneOrMore(p, func(p Parser) (Expr, error) {
		return p.(*GrammarParser).ParseSuffix()
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return Seq(items...), nil
}

// GR: Suffix <- Primary ((QUESTION / STAR / PLUS) Spacing)*
func (p *GrammarParser) ParseSuffix() (Expr, error) {
	expr, err := p.ParsePrimary()
	if err != nil {
		return nil, err
	}
	suffixes, err := zeroOrMore(p, func(p Parser) (rune, error) {
		s, err := choiceRune(p, []rune{'?', '*', '+'})
		if err != nil {
			return 0, err
		}
		p.(*GrammarParser).ParseSpacing()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	for _, s := range suffixes {
		switch s {
		case '?':
			expr = Opt(expr)
		case '*':
			expr = ZeroOrMore(expr)
		case '+':
			expr = OneOrMoreOf(expr)
		}
	}
	return expr, nil
}

// GR: Primary <- Builtin
// GR:          / Identifier !COLON
// GR:          / OPEN Expression CLOSE
// GR:          / Literal
func (p *GrammarParser) ParsePrimary() (Expr, error) {
	return choice(p, []ParserFn[Expr]{
		func(p Parser) (Expr, error) { return p.(*GrammarParser).ParseBuiltin() },
		func(p Parser) (Expr, error) { return p.(*GrammarParser).ParseReference() },
		func(p Parser) (Expr, error) { return p.(*GrammarParser).ParseParenExpression() },
		func(p Parser) (Expr, error) { return p.(*GrammarParser).ParseLiteral() },
	})
}

// GR: Builtin <- '@' Identifier Spacing
func (p *GrammarParser) ParseBuiltin() (Expr, error) {
	start := p.Location()
	if _, err := p.ExpectRune('@'); err != nil {
		return nil, err
	}
	name, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	b, ok := BuiltinByName(name)
	if !ok {
		msg := fmt.Sprintf("unknown builtin '@%s'", name)
		return nil, p.Throw(msg, NewSpan(start, p.Location()))
	}
	p.ParseSpacing()
	return b, nil
}

// GR: Reference <- Identifier Spacing !COLON
func (p *GrammarParser) ParseReference() (Expr, error) {
	name, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	p.ParseSpacing()

	// an identifier followed by a colon starts the next definition
	if _, err := not(p, p.ExpectRuneFn(':')); err != nil {
		return nil, err
	}
	return Ref(name), nil
}

// GR: Identifier <- IdentStart IdentCont*
// GR: IdentStart <- [a-zA-Z_]
// GR: IdentCont  <- IdentStart / [0-9]
func (p *GrammarParser) parseIdentifier() (string, error) {
	head, err := p.ExpectClass("identifier", isIdentStart)
	if err != nil {
		return "", err
	}
	name := []rune{head}
	for isIdentCont(p.Peek()) {
		c, _ := p.Any()
		name = append(name, c)
	}
	return string(name), nil
}

func isIdentStart(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isIdentCont(c rune) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// GR: ParenExpression <- OPEN Expression CLOSE
func (p *GrammarParser) ParseParenExpression() (Expr, error) {
	if _, err := p.ExpectRune('('); err != nil {
		return nil, err
	}
	p.ParseSpacing()
	expr, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.ExpectRune(')'); err != nil {
		return nil, err
	}
	p.ParseSpacing()
	return expr, nil
}

// GR: Literal <- ["] Char* ["] Spacing
//
// Escape sequences are the ones accepted by Go's double quoted
// strings, so literals round trip through Literal.Text.
func (p *GrammarParser) ParseLiteral() (Expr, error) {
	start := p.Location()
	if _, err := p.ExpectRune('"'); err != nil {
		return nil, err
	}
	chars, err := zeroOrMore(p, func(p Parser) (string, error) {
		return p.(*GrammarParser).parseChar()
	})
	if err != nil {
		return nil, err
	}
	if p.Peek() != '"' {
		return nil, p.Throw("unterminated literal", NewSpan(start, p.Location()))
	}
	p.Any()
	value, err := strconv.Unquote(`"` + strings.Join(chars, "") + `"`)
	if err != nil {
		return nil, p.Throw("invalid escape sequence in literal", NewSpan(start, p.Location()))
	}
	p.ParseSpacing()
	return Lit(value), nil
}

// GR: Char <- '\\' . / !["\n] .
func (p *GrammarParser) parseChar() (string, error) {
	if p.Peek() == '\\' {
		p.Any()
		c, err := p.Any()
		if err != nil {
			return "", err
		}
		return `\` + string(c), nil
	}
	if _, err := not(p, func(p Parser) (rune, error) {
		return choiceRune(p, []rune{'"', '\n'})
	}); err != nil {
		return "", err
	}
	c, err := p.Any()
	if err != nil {
		return "", err
	}
	return string(c), nil
}

// GR: Spacing <- (' ' / '\t' / '\r' / '\n' / Comment)*
// GR: Comment <- '#' (!EOL .)*
func (p *GrammarParser) ParseSpacing() {
	for {
		switch p.Peek() {
		case ' ', '\t', '\r', '\n':
			p.Any()
		case '#':
			for c := p.Peek(); c != '\n' && c != eof; c = p.Peek() {
				p.Any()
			}
		default:
			return
		}
	}
}
