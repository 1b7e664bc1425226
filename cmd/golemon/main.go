/*
Golemon compiles a lemon-style LALR(1) grammar file into a table-driven Go
parser.

It reads a grammar file, builds its LALR(1) viable-prefix automaton,
resolves any shift/reduce or reduce/reduce conflicts using declared operator
precedence, and writes the generated parser source next to the grammar
file (or to the directory given by -o). A report of the automaton it built
can be requested separately with -r, and summary statistics with -s.

Usage:

	golemon [flags] GRAMMAR_FILE

The flags are:

	-v, --version
		Give the current version of golemon and then exit.

	-o, --out-dir DIR
		Write generated output to DIR instead of the grammar file's own
		directory.

	-p, --package NAME
		Set the package name declared in the generated source. Defaults to
		the grammar file's base name.

	-T, --template FILE
		Use the given code-emission template instead of the built-in one.

	-D, --define NAME
		Define NAME for %ifdef/%ifndef conditional compilation in the
		grammar source. May be given more than once.

	-C, --no-compress
		Skip the table-compression pass, at the cost of a larger table.

	-r, --report
		Write a .out file describing every state, item, and action in the
		built automaton, alongside the generated source.

	-S, --sql
		Write a .sql dump of the grammar and automaton, alongside the
		generated source.

	-s, --stats
		Print summary statistics about the grammar and automaton to
		stderr.

	-c, --config FILE
		Load a golemon project file before applying flags. Only its
		module_name and compress settings are used; -p and -C override
		them.

	--cache FILE
		Cache the packed action table at FILE, keyed by a hash of the
		grammar source and the compression setting, so a later run over an
		unchanged grammar skips
		the table-packing pass.
*/
package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/blake2b"

	"github.com/dekarrin/golemon"
	"github.com/dekarrin/golemon/internal/lemoncfg"
	"github.com/dekarrin/golemon/internal/lemonerr"
	"github.com/dekarrin/golemon/internal/report"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitGrammarError indicates the grammar file itself had a problem:
	// a syntax error, an undeclared symbol, or a similar user-fixable
	// issue.
	ExitGrammarError

	// ExitInitError indicates an unsuccessful program execution due to an
	// issue with flags, files, or configuration, before any grammar
	// processing could begin.
	ExitInitError

	// ExitInternalError indicates a bug in golemon itself rather than a
	// problem with the user's input.
	ExitInternalError
)

const version = "0.1.0"

var (
	returnCode = ExitSuccess

	flagVersion     = pflag.BoolP("version", "v", false, "Gives the version info")
	outDir          = pflag.StringP("out-dir", "o", "", "Directory to write generated output to")
	packageName     = pflag.StringP("package", "p", "", "Package name for generated source")
	templateFile    = pflag.StringP("template", "T", "", "Code-emission template file to use instead of the built-in one")
	defines         = pflag.StringArrayP("define", "D", nil, "Define NAME for %ifdef/%ifndef conditional compilation")
	noCompress      = pflag.BoolP("no-compress", "C", false, "Skip the table-compression pass")
	wantReport      = pflag.BoolP("report", "r", false, "Write a .out automaton report")
	wantSQL         = pflag.BoolP("sql", "S", false, "Write a .sql dump of the grammar and automaton")
	wantStats       = pflag.BoolP("stats", "s", false, "Print summary statistics to stderr")
	configFile      = pflag.StringP("config", "c", "", "Load defaults from a golemon project file")
	cacheFile       = pflag.String("cache", "", "Cache the packed action table at this path, keyed by grammar source hash")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("golemon %s\n", version)
		return
	}

	if pflag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "ERROR: a grammar file is required")
		returnCode = ExitInitError
		return
	}
	grammarPath := pflag.Arg(0)

	opts, err := buildOptions(grammarPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	src, err := os.ReadFile(grammarPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	gen := golemon.New(opts)

	g, errs := gen.Parse(grammarPath, string(src))
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", lemonerr.FullMessage(e))
		}
		returnCode = ExitGrammarError
		return
	}

	res, err := gen.Build(g)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		if lemonerr.IsFatal(err) {
			returnCode = ExitInternalError
		} else {
			returnCode = ExitGrammarError
		}
		return
	}

	base := strings.TrimSuffix(filepath.Base(grammarPath), filepath.Ext(grammarPath))
	dir := filepath.Dir(grammarPath)
	if *outDir != "" {
		dir = *outDir
	}

	if err := writeGenerated(gen, res, filepath.Join(dir, base+".go")); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	if *wantReport {
		if err := writeAtomic(filepath.Join(dir, base+".out"), func(f *os.File) error {
			return gen.WriteReport(f, res)
		}); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitInitError
			return
		}
	}

	if *wantSQL {
		if err := writeAtomic(filepath.Join(dir, base+".sql"), func(f *os.File) error {
			return gen.WriteSQL(f, res)
		}); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitInitError
			return
		}
	}

	if *wantStats {
		printStats(res)
	}

	if len(res.Conflicts) > 0 {
		returnCode = ExitGrammarError
		if !*wantReport {
			fmt.Fprintf(os.Stderr, "WARN  %d conflict(s) left unresolved; rerun with -r for details\n", len(res.Conflicts))
		}
	}
}

func buildOptions(grammarPath string) (golemon.Options, error) {
	opts := golemon.Options{Compress: true, Defines: make(map[string]bool)}

	if *configFile != "" {
		cfg, err := lemoncfg.Load(*configFile)
		if err != nil {
			return opts, err
		}
		if cfg.ModuleName != "" {
			opts.Package = cfg.ModuleName
		}
		opts.Compress = cfg.CompressEnabled()
	}

	if *packageName != "" {
		opts.Package = *packageName
	}
	if opts.Package == "" {
		opts.Package = strings.TrimSuffix(filepath.Base(grammarPath), filepath.Ext(grammarPath))
	}

	if *noCompress {
		opts.Compress = false
	}

	for _, d := range *defines {
		opts.Defines[d] = true
	}

	opts.CacheFile = *cacheFile

	if *templateFile != "" {
		data, err := os.ReadFile(*templateFile)
		if err != nil {
			return opts, lemonerr.WrapFatal(err, "read template file "+*templateFile)
		}
		opts.Template = string(data)
	}

	return opts, nil
}

// writeAtomic writes the output of fn to a temporary file named with a
// random UUID in the target's directory, then renames it into place, so a
// reader never observes a partially written output file if golemon is
// interrupted mid-write.
func writeAtomic(path string, fn func(*os.File) error) error {
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, "."+uuid.NewString()+".tmp")

	f, err := os.Create(tmp)
	if err != nil {
		return lemonerr.WrapFatal(err, "create temp file for "+path)
	}

	if err := fn(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return lemonerr.WrapFatal(err, "close temp file for "+path)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return lemonerr.WrapFatal(err, "rename temp file into place at "+path)
	}
	return nil
}

// writeGenerated renders the generated parser source to memory first and
// compares its hash against whatever already sits at path, so an unchanged
// grammar leaves the file's mtime (and any build cache keyed on it) alone
// instead of rewriting byte-identical content on every run.
func writeGenerated(gen *golemon.Generator, res *golemon.Result, path string) error {
	var buf bytes.Buffer
	if err := gen.Emit(&buf, res); err != nil {
		return err
	}

	if existing, err := os.ReadFile(path); err == nil {
		if blake2b.Sum256(existing) == blake2b.Sum256(buf.Bytes()) {
			return nil
		}
	}

	return writeAtomic(path, func(f *os.File) error {
		_, err := f.Write(buf.Bytes())
		return err
	})
}

func printStats(res *golemon.Result) {
	s := report.Gather(res.Grammar, res.Builder.NTerminal, res.Builder.States, res.Conflicts, res.Table)
	if isatty.IsTerminal(os.Stderr.Fd()) {
		fmt.Fprintln(os.Stderr, "--- golemon build statistics ---")
	}
	report.WriteStats(os.Stderr, s)
}
