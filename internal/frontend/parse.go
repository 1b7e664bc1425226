// Package frontend turns a lemon-style grammar source file into a
// *grammar.Grammar: a symbol table and rule list the automaton builder can
// consume directly. Its Parse function is a single hand-rolled scanning
// pass over the preprocessed source text, in the same state-machine style
// ictiobus's CreateBootstrapGrammarFromLexerStream uses to read its own
// bootstrap grammar file: a handful of boolean/enum flags track what
// syntactic position the cursor is in, rather than building a full AST via
// a generated parser.
package frontend

import (
	"strings"
	"unicode"

	"github.com/dekarrin/golemon/internal/grammar"
	"github.com/dekarrin/golemon/internal/lemonerr"
	"github.com/dekarrin/golemon/internal/symtab"
)

type parser struct {
	file string
	src  string
	pos  int
	line int

	tab *grammar.Grammar

	precLevel int
	errs      []error
}

// Parse reads a full grammar file (already preprocessed: comments and
// conditionals resolved) and returns the grammar it declares, along with
// every error encountered. Parsing continues past errors where possible so
// that a single invocation reports as many problems as it can, the way
// lemon itself does.
func Parse(file, src string) (*grammar.Grammar, []error) {
	p := &parser{
		file: file,
		src:  src,
		line: 1,
		tab:  grammar.New(symtab.New()),
	}
	p.run()
	return p.tab, p.errs
}

func (p *parser) run() {
	var lastRule *grammar.Rule
	for {
		p.skipSpaceAndNewlines()
		if p.eof() {
			return
		}
		if p.peek() == '%' {
			p.directive()
			continue
		}
		if p.peek() == '{' {
			code, line := p.codeBlock()
			if lastRule == nil {
				p.errf("code block with no preceding rule")
				continue
			}
			p.attachCode(lastRule, code, line)
			continue
		}
		if r := p.rule(); r != nil {
			lastRule = r
		}
	}
}

// attachCode assigns a parsed code block to r, either as its semantic
// action or, if the block's entire content is the literal "NEVER-REDUCE",
// by setting r.NeverReduce (used for syntax-only rules kept around purely
// so a symbol's grammar is complete, e.g. error-recovery productions; the
// .out report lists such rules as unused).
func (p *parser) attachCode(r *grammar.Rule, code string, line int) {
	if strings.TrimSpace(code) == "NEVER-REDUCE" {
		r.NeverReduce = true
		return
	}
	r.Code = code
	r.CodeLine = line
	r.NoCode = false
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) advance() byte {
	c := p.src[p.pos]
	p.pos++
	if c == '\n' {
		p.line++
	}
	return c
}

func (p *parser) skipSpaceAndNewlines() {
	for !p.eof() {
		c := p.peek()
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			p.advance()
			continue
		}
		return
	}
}

func (p *parser) skipInlineSpace() {
	for !p.eof() && (p.peek() == ' ' || p.peek() == '\t') {
		p.advance()
	}
}

func (p *parser) errf(format string, a ...interface{}) {
	p.errs = append(p.errs, lemonerr.Grammarf(p.file, p.line, format, a...))
}

// word reads an identifier: letters, digits, and underscores. Used for
// directive names, symbol names, and aliases.
func (p *parser) word() string {
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c)) || c == '_' {
			p.advance()
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

// codeBlock reads a brace-delimited code fragment starting at the current
// '{', tracking nesting depth and string literals so an embedded "}" in a
// quoted string doesn't end the block early, and returns the contents
// without the outer braces.
func (p *parser) codeBlock() (code string, startLine int) {
	startLine = p.line
	if p.peek() != '{' {
		return "", startLine
	}
	p.advance()
	depth := 1
	start := p.pos
	for !p.eof() && depth > 0 {
		c := p.advance()
		switch c {
		case '{':
			depth++
		case '}':
			depth--
		case '"':
			p.skipStringLiteral()
		}
	}
	end := p.pos
	if depth == 0 {
		end--
	}
	return p.src[start:end], startLine
}

func (p *parser) skipStringLiteral() {
	for !p.eof() {
		c := p.advance()
		if c == '\\' && !p.eof() {
			p.advance()
			continue
		}
		if c == '"' {
			return
		}
	}
}

// bracketedSymbol reads a "[SYMNAME]" precedence override, assuming the
// '[' is the current character, and returns the symbol name inside it.
func (p *parser) bracketedSymbol() string {
	p.advance() // '['
	start := p.pos
	for !p.eof() && p.peek() != ']' {
		p.advance()
	}
	name := p.src[start:p.pos]
	if !p.eof() {
		p.advance() // ']'
	}
	return strings.TrimSpace(name)
}

// directive parses one %directive starting at the current '%'.
func (p *parser) directive() {
	p.advance() // '%'
	name := p.word()

	switch name {
	case "token_type", "default_type":
		p.skipInlineSpace()
		code, _ := p.codeBlock()
		typ := strings.TrimSpace(code)
		if typ == "" {
			typ = p.restOfLine()
		}
		if name == "token_type" {
			p.applyToAllTerminals(func(s *symtab.Symbol) { s.DataType = typ })
		} else {
			p.tab.Symbols.New("{default}").DataType = typ
		}
	case "type":
		p.skipInlineSpace()
		symName := p.word()
		p.skipInlineSpace()
		code, _ := p.codeBlock()
		typ := strings.TrimSpace(code)
		if typ == "" {
			typ = p.restOfLine()
		}
		p.tab.Symbols.New(symName).DataType = typ
	case "left", "right", "nonassoc":
		p.precedenceDecl(name)
	case "fallback":
		p.fallbackDecl()
	case "destructor":
		p.skipInlineSpace()
		symName := p.word()
		p.skipInlineSpace()
		code, line := p.codeBlock()
		sym := p.tab.Symbols.New(symName)
		sym.DestructorCode = code
		sym.DestructorLine = line
	case "start_symbol":
		p.skipInlineSpace()
		symName := p.word()
		p.tab.Start = p.tab.Symbols.New(symName)
	case "include", "code", "syntax_error", "parse_accept", "parse_failure", "stack_overflow", "name", "extra_argument", "token_prefix", "token_destructor", "stack_size":
		// Free-form directives that take either a code block or the rest of
		// the line as an opaque payload; golemon's grammar model doesn't
		// need their contents beyond having consumed them so the scanner
		// doesn't trip over embedded braces.
		p.skipInlineSpace()
		if p.peek() == '{' {
			p.codeBlock()
		} else {
			p.restOfLine()
		}
	default:
		p.errf("unknown directive %%%s", name)
		p.restOfLine()
	}
}

func (p *parser) restOfLine() string {
	start := p.pos
	for !p.eof() && p.peek() != '\n' {
		p.advance()
	}
	return strings.TrimSpace(p.src[start:p.pos])
}

func (p *parser) applyToAllTerminals(f func(*symtab.Symbol)) {
	for _, s := range p.tab.Symbols.All() {
		if s.Kind == symtab.Terminal {
			f(s)
		}
	}
}

// precedenceDecl parses "%left A B C ." (or right/nonassoc), assigning the
// next precedence level to every named terminal.
func (p *parser) precedenceDecl(kind string) {
	p.precLevel++
	assoc := symtab.AssocLeft
	switch kind {
	case "right":
		assoc = symtab.AssocRight
	case "nonassoc":
		assoc = symtab.AssocNonAssoc
	}

	for {
		p.skipInlineSpace()
		if p.eof() || p.peek() == '.' || p.peek() == '\n' {
			break
		}
		name := p.word()
		if name == "" {
			break
		}
		sym := p.tab.Symbols.New(name)
		if sym.Precedence >= 0 {
			p.errf("symbol %q has already been given a precedence", name)
			continue
		}
		sym.Precedence = p.precLevel
		sym.Assoc = assoc
	}
	p.skipInlineSpace()
	if p.peek() == '.' {
		p.advance()
	}
}

// fallbackDecl parses "%fallback BASE A B C .", making A, B, and C each
// fall back to BASE when no action exists for them.
func (p *parser) fallbackDecl() {
	p.skipInlineSpace()
	baseName := p.word()
	if baseName == "" {
		p.errf("%%fallback requires a base terminal")
		return
	}
	base := p.tab.Symbols.New(baseName)

	for {
		p.skipInlineSpace()
		if p.eof() || p.peek() == '.' || p.peek() == '\n' {
			break
		}
		name := p.word()
		if name == "" {
			break
		}
		p.tab.Symbols.New(name).Fallback = base
	}
	p.skipInlineSpace()
	if p.peek() == '.' {
		p.advance()
	}
}

// rule parses one grammar production:
//
//	lhs(alias) ::= sym1(a1) sym2|sym3(a2) ... [PRECSYM] . { code }
//
// A RHS symbol followed immediately by "|NAME" or "/NAME" (repeatable)
// fuses that slot into a multi-terminal accepting any of the named
// terminals, lemon's own alias-class syntax.
func (p *parser) rule() *grammar.Rule {
	lineStart := p.line
	lhsName := p.word()
	if lhsName == "" {
		p.errf("expected directive or rule, found %q", string(p.peek()))
		p.advance()
		return nil
	}
	lhsAlias := p.maybeAlias()

	p.skipInlineSpace()
	if !p.consumeLiteral("::=") {
		p.errf("expected '::=' after %q", lhsName)
		p.restOfLine()
		return nil
	}

	lhs := p.tab.Symbols.New(lhsName)
	if lhs.Kind == symtab.Terminal {
		p.errf("%q is a terminal and cannot be used as a rule's left-hand side", lhsName)
	}
	if p.tab.Start == nil {
		p.tab.Start = lhs
	}

	var rhs []grammar.RHSSymbol
	var precOverride *symtab.Symbol

	for {
		p.skipInlineSpace()
		if p.eof() {
			p.errf("unterminated rule for %q (missing '.')", lhsName)
			return nil
		}
		switch p.peek() {
		case '.':
			p.advance()
			goto doneRHS
		case '[':
			precOverride = p.tab.Symbols.New(p.bracketedSymbol())
		case '\n':
			p.advance()
		default:
			name := p.word()
			if name == "" {
				p.errf("unexpected character %q in rule for %q", string(p.peek()), lhsName)
				p.advance()
				continue
			}
			sym := p.tab.Symbols.New(name)
			for p.peek() == '|' || p.peek() == '/' {
				p.advance()
				altName := p.word()
				if altName == "" {
					p.errf("expected terminal name after '|' in multi-terminal for %q", lhsName)
					break
				}
				sym = p.fuseMultiTerminal(sym, p.tab.Symbols.New(altName))
			}
			alias := p.maybeAlias()
			rhs = append(rhs, grammar.RHSSymbol{Sym: sym, Alias: alias})
		}
	}

doneRHS:
	p.skipInlineSpace()
	var code string
	var codeLine int
	if p.peek() == '{' {
		code, codeLine = p.codeBlock()
	}

	r := p.tab.AddRule(lhs, lhsAlias, rhs, code, codeLine)
	if codeLine == 0 {
		r.CodeLine = lineStart
	}
	if precOverride != nil {
		r.Precedence = precOverride
	}
	if strings.TrimSpace(code) == "NEVER-REDUCE" {
		r.NeverReduce = true
		r.Code = ""
		r.NoCode = true
	}
	return r
}

// fuseMultiTerminal folds add into base's alias class, promoting base into a
// freshly interned multi-terminal symbol on first fusion and extending an
// existing one on subsequent "|" occurrences in the same RHS slot. Both
// sides must be terminals; a multi-terminal may never contain a
// non-terminal.
func (p *parser) fuseMultiTerminal(base, add *symtab.Symbol) *symtab.Symbol {
	if add.Kind == symtab.NonTerminal {
		p.errf("%q is a non-terminal and cannot appear in a multi-terminal", add.Name)
		return base
	}
	add.UseCount++
	switch base.Kind {
	case symtab.Terminal:
		base.UseCount++
		name := base.Name + "|" + add.Name
		return p.tab.Symbols.NewMultiTerminal(name, []*symtab.Symbol{base, add})
	case symtab.MultiTerminal:
		name := base.Name + "|" + add.Name
		subs := append(append([]*symtab.Symbol{}, base.SubSymbols...), add)
		return p.tab.Symbols.NewMultiTerminal(name, subs)
	default:
		p.errf("%q is a non-terminal and cannot appear in a multi-terminal", base.Name)
		return base
	}
}

// maybeAlias reads an optional "(alias)" immediately following a symbol
// name, with no intervening space (lemon's own convention).
func (p *parser) maybeAlias() string {
	if p.eof() || p.peek() != '(' {
		return ""
	}
	p.advance()
	start := p.pos
	for !p.eof() && p.peek() != ')' {
		p.advance()
	}
	alias := p.src[start:p.pos]
	if !p.eof() {
		p.advance()
	}
	return strings.TrimSpace(alias)
}

func (p *parser) consumeLiteral(lit string) bool {
	if strings.HasPrefix(p.src[p.pos:], lit) {
		for range lit {
			p.advance()
		}
		return true
	}
	return false
}

// Validate performs the grammar-wide sanity checks that can't be done
// incrementally while scanning: every non-terminal appearing on some RHS
// must itself have at least one rule, and the grammar must have at least
// one rule.
func Validate(file string, g *grammar.Grammar) []error {
	var errs []error
	if len(g.Rules) == 0 {
		errs = append(errs, lemonerr.Grammar(file, 0, "grammar has no rules"))
		return errs
	}

	hasRule := make(map[*symtab.Symbol]bool)
	for _, r := range g.Rules {
		hasRule[r.LHS] = true
	}

	for _, r := range g.Rules {
		for _, rs := range r.RHS {
			if rs.Sym.Kind == symtab.NonTerminal && !hasRule[rs.Sym] {
				errs = append(errs, lemonerr.Grammarf(file, r.CodeLine, "non-terminal %q has no rules", rs.Sym.Name))
			}
		}
	}

	for _, s := range g.Symbols.All() {
		if s.UseCount == 0 && s != g.Start && s.Name != "error" && s.Name != "{default}" {
			errs = append(errs, lemonerr.Grammarf(file, 0, "symbol %q is declared but never used", s.Name))
		}
	}

	return errs
}
