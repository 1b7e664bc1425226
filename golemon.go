// Package golemon contains a LALR(1) parser-table generator: point it at a
// lemon-style grammar file and it produces a table-driven parser's worth of
// generated Go source, plus an optional human-readable report of the
// automaton it built along the way.
//
// The name continues a small tradition: lemon itself was named for its
// relationship to yacc the way a lemon shark relates to other fish, and
// this one builds the same kind of table a different way, for a language
// neither of its ancestors targeted.
package golemon

import (
	"io"

	"github.com/dekarrin/golemon/internal/automaton"
	"github.com/dekarrin/golemon/internal/cache"
	"github.com/dekarrin/golemon/internal/emit"
	"github.com/dekarrin/golemon/internal/frontend"
	"github.com/dekarrin/golemon/internal/grammar"
	"github.com/dekarrin/golemon/internal/lemonerr"
	"github.com/dekarrin/golemon/internal/pack"
	"github.com/dekarrin/golemon/internal/report"
	"github.com/dekarrin/golemon/internal/resolve"
	"github.com/dekarrin/golemon/internal/symtab"
)

// Options controls a single generation run. Package, Prologue, and Epilogue
// feed directly into the generated file's header and footer; Compress and
// Defines mirror the CLI flags of the same name.
type Options struct {
	// Package is the package name the generated Go source declares.
	Package string

	// Prologue and Epilogue are copied verbatim into the generated source,
	// before and after the generated parser machinery respectively.
	Prologue string
	Epilogue string

	// Template overrides DefaultTemplate when non-empty.
	Template string

	// Compress controls whether resolve.Compress's table-shrinking passes
	// run before packing, at the cost of a larger generated table when
	// disabled. States are renumbered by resolve.ResortStates either way;
	// both paths give the same numbering on every run of an unchanged
	// grammar.
	Compress bool

	// Defines is the set of names active for %ifdef/%ifndef conditional
	// compilation in the grammar source, populated from -D flags.
	Defines map[string]bool

	// CacheFile, if non-empty, is a path Build consults before the packing
	// stage, and writes to afterward. A hit (the cached entry's key matches
	// this preprocessed source and Compress setting) reuses the cached
	// packed Table instead of packing again; the automaton is still built
	// and resolved on every run.
	CacheFile string
}

// Result is everything a Generate call produced: the grammar and automaton
// it built, the conflicts it had to resolve, and the packed table handed to
// the emitter.
type Result struct {
	Grammar   *grammar.Grammar
	Builder   *automaton.Builder
	Conflicts []resolve.Conflict
	Table     *pack.Table
}

// Generator runs the full golemon pipeline: read and parse a grammar file,
// build its LALR(1) automaton, resolve conflicts and compress the result,
// pack the action table, and emit generated source. Each stage is also
// exposed as its own method for callers (notably the reporter and the
// tests) that want the intermediate state without driving the whole
// pipeline through Generate.
type Generator struct {
	Opts Options
}

// New returns a Generator configured with opts. A zero Options does not
// compress tables and declares no defines; an empty Package becomes
// "parser".
func New(opts Options) *Generator {
	if opts.Package == "" {
		opts.Package = "parser"
	}
	return &Generator{Opts: opts}
}

// Parse reads and parses a grammar file's source, returning every
// diagnostic encountered. The returned grammar holds whatever rules parsing
// did manage to recognize, even when the error slice is non-empty. Generate
// (and the golemon command) treat any returned error as fatal and stop
// before Build.
func (gen *Generator) Parse(file, src string) (*grammar.Grammar, []error) {
	processed := frontend.Preprocess(src, gen.Opts.Defines)
	g, errs := frontend.Parse(file, processed)
	errs = append(errs, frontend.Validate(file, g)...)
	g.SourceHash = cache.Hash(processed)
	return g, errs
}

// Build runs the automaton construction and conflict-resolution stages over
// an already-parsed grammar and returns the finished Result, ready for
// reporting and/or emission.
func (gen *Generator) Build(g *grammar.Grammar) (*Result, error) {
	if len(g.Rules) == 0 {
		return nil, lemonerr.Fatal("cannot build automaton for a grammar with no rules")
	}

	b := automaton.NewBuilder(g)
	b.FindRulePrecedences()
	b.FindFirstSets()
	b.FindStates()
	b.FindLinks()
	b.FindFollowSets()
	b.FindActions()

	conflicts := resolve.Resolve(b.States)
	if gen.Opts.Compress {
		resolve.Compress(b.States)
	} else {
		resolve.ResortStates(b.States)
	}

	key := g.SourceHash
	if !gen.Opts.Compress {
		key += "-nocompress"
	}
	var table *pack.Table
	if gen.Opts.CacheFile != "" {
		if cached, ok, err := cache.Load(gen.Opts.CacheFile, key); err == nil && ok {
			table = cached
		}
	}
	if table == nil {
		table = pack.Build(b.States, b.NTerminal, len(g.Rules), fallbackTable(g, b.NTerminal))
		if gen.Opts.CacheFile != "" {
			_ = cache.Save(gen.Opts.CacheFile, key, table)
		}
	}

	return &Result{Grammar: g, Builder: b, Conflicts: conflicts, Table: table}, nil
}

// fallbackTable returns g's %fallback assignments as a slice indexed by
// terminal index, suitable for pack.Build: fallbackTable[i] is the terminal
// index terminal i should retry a failed action lookup with, or -1 if it
// has none declared.
func fallbackTable(g *grammar.Grammar, nTerminal int) []int {
	fb := make([]int, nTerminal)
	for i := range fb {
		fb[i] = -1
	}
	for _, s := range g.Symbols.All() {
		if s.Kind == symtab.Terminal && s.Fallback != nil {
			fb[s.Index] = s.Fallback.Index
		}
	}
	return fb
}

// Emit writes the generated parser source for res to w, using opts.Template
// if set or emit.DefaultTemplate otherwise.
func (gen *Generator) Emit(w io.Writer, res *Result) error {
	tmpl := gen.Opts.Template
	if tmpl == "" {
		tmpl = emit.DefaultTemplate
	}
	data := emit.BuildData(gen.Opts.Package, gen.Opts.Prologue, gen.Opts.Epilogue, res.Grammar, res.Builder.EOFSymbol.Index, res.Table)
	return emit.Emit(w, tmpl, data)
}

// WriteReport writes the .out report for res to w.
func (gen *Generator) WriteReport(w io.Writer, res *Result) error {
	return report.WriteOut(w, res.Grammar, res.Builder.States, res.Conflicts)
}

// WriteSQL writes the SQL dump for res to w.
func (gen *Generator) WriteSQL(w io.Writer, res *Result) error {
	return report.WriteSQL(w, res.Grammar, res.Builder.States)
}

// Generate runs the full pipeline over src in one call: parse, build, and
// emit, returning the Result for callers that also want a report or stats.
// Any parse error aborts before Build runs.
func (gen *Generator) Generate(w io.Writer, file, src string) (*Result, []error, error) {
	g, errs := gen.Parse(file, src)
	if len(errs) > 0 {
		return nil, errs, nil
	}
	res, err := gen.Build(g)
	if err != nil {
		return nil, errs, err
	}
	if err := gen.Emit(w, res); err != nil {
		return res, errs, err
	}
	return res, errs, nil
}
