package frontend

import (
	"strings"
)

// Preprocess strips C-style comments and resolves %ifdef/%ifndef/%else/
// %endif conditional blocks against the given define set before the
// grammar scanner ever sees the text. %if with an expression is not
// recognized, and conditional blocks do not nest (see resolveConditionals). It
// also normalizes line endings so downstream line numbers are stable
// regardless of the source file's platform.
func Preprocess(src string, defines map[string]bool) string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = stripComments(src)
	return resolveConditionals(src, defines)
}

func stripComments(src string) string {
	var out strings.Builder
	inLine, inBlock := false, false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inLine {
			if c == '\n' {
				inLine = false
				out.WriteByte(c)
			}
			continue
		}
		if inBlock {
			if c == '*' && i+1 < len(src) && src[i+1] == '/' {
				inBlock = false
				i++
			} else if c == '\n' {
				out.WriteByte('\n') // preserve line numbering across block comments
			}
			continue
		}
		if c == '/' && i+1 < len(src) && src[i+1] == '/' {
			inLine = true
			i++
			continue
		}
		if c == '/' && i+1 < len(src) && src[i+1] == '*' {
			inBlock = true
			i++
			continue
		}
		out.WriteByte(c)
	}
	return out.String()
}

// resolveConditionals strips %ifdef NAME / %ifndef NAME / %else / %endif
// blocks, keeping only the branch whose condition matches defines. Nesting
// is not supported; golemon grammars are not macro-heavy enough to need it,
// and lemon's own conditional directives are a rarely used escape hatch.
func resolveConditionals(src string, defines map[string]bool) string {
	lines := strings.Split(src, "\n")
	var out []string
	active := true
	inBlock := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "%ifdef "):
			name := strings.TrimSpace(strings.TrimPrefix(trimmed, "%ifdef "))
			inBlock = true
			active = defines[name]
			out = append(out, "")
			continue
		case strings.HasPrefix(trimmed, "%ifndef "):
			name := strings.TrimSpace(strings.TrimPrefix(trimmed, "%ifndef "))
			inBlock = true
			active = !defines[name]
			out = append(out, "")
			continue
		case trimmed == "%else":
			if inBlock {
				active = !active
			}
			out = append(out, "")
			continue
		case trimmed == "%endif":
			inBlock, active = false, true
			out = append(out, "")
			continue
		}
		if active {
			out = append(out, line)
		} else {
			out = append(out, "")
		}
	}
	return strings.Join(out, "\n")
}
