// Package lemoncfg loads a golemon project file: a TOML document named with
// the golemon command's -c flag. Of its settings, the command applies only
// ModuleName and Compress, and the -p and -C flags override those. Grammar
// must be set for Load to accept the file; Grammar, Template, OutDir,
// Report and Quiet are parsed but not applied by the command.
package lemoncfg

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/dekarrin/golemon/internal/lemonerr"
)

// Config is the parsed contents of a golemon.toml project file.
type Config struct {
	// Grammar is the path to a grammar file. Load rejects a project file
	// that leaves it empty; the golemon command takes the grammar path from
	// its own arguments and does not read this field.
	Grammar string `toml:"grammar"`

	// Template names a code-emission template; the golemon command does
	// not apply it.
	Template string `toml:"template,omitempty"`

	// OutDir names an output directory; the golemon command does not apply
	// it.
	OutDir string `toml:"out_dir,omitempty"`

	// ModuleName is the package name given to generated source unless -p
	// is passed.
	ModuleName string `toml:"module_name,omitempty"`

	// Report requests a .out report; the golemon command does not apply it.
	Report bool `toml:"report,omitempty"`

	// Quiet requests no summary statistics; the golemon command does not
	// apply it.
	Quiet bool `toml:"quiet,omitempty"`

	// Compress controls whether Compress's table-shrinking passes run
	// (enabled when unset); -C on the command line disables them
	// regardless.
	Compress *bool `toml:"compress,omitempty"`
}

// CompressEnabled reports whether table compression should run, defaulting
// to true when the project file doesn't mention it.
func (c *Config) CompressEnabled() bool {
	if c.Compress == nil {
		return true
	}
	return *c.Compress
}

// Load reads and parses the project file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, lemonerr.WrapFatal(err, "read project file "+path)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, lemonerr.Grammarf(path, 0, "invalid project file: %s", err.Error())
	}

	if cfg.Grammar == "" {
		return nil, lemonerr.Grammar(path, 0, "project file must set \"grammar\"")
	}

	return &cfg, nil
}
