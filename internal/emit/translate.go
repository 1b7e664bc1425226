package emit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dekarrin/golemon/internal/grammar"
)

var identRE = regexp.MustCompile(`@?[A-Za-z_][A-Za-z0-9_]*`)

// TranslateAction rewrites a rule's raw semantic-action source, replacing
// every alias that names one of the rule's RHS symbols (or the LHS alias)
// with the generated parser's actual stack-slot reference, and every
// "@alias" occurrence with the major token number of that RHS symbol
// instead of its semantic value. Identifiers that aren't declared aliases
// of this rule pass through untouched, so ordinary Go code in the action
// (function calls, local variables, literals) is never disturbed.
//
// yymsp is the generated driver's name for the slice of stack entries a
// reduce is about to pop, in the order they were pushed; RHS alias i
// therefore lives at yymsp[i].minor.yyN, and the LHS alias (the reduce's
// own produced value) is yygotominor.yyN, or plain yygotominor when the LHS
// has no declared type.
func TranslateAction(r *grammar.Rule) string {
	if r.Code == "" {
		return ""
	}

	aliasToSlot := make(map[string]int, len(r.RHS))
	aliasToField := make(map[string]int, len(r.RHS))
	for i, rs := range r.RHS {
		if rs.Alias == "" {
			continue
		}
		aliasToSlot[rs.Alias] = i
		aliasToField[rs.Alias] = rs.Sym.DtNum
	}

	lhsField := r.LHS.DtNum

	return identRE.ReplaceAllStringFunc(r.Code, func(tok string) string {
		if strings.HasPrefix(tok, "@") {
			name := tok[1:]
			if slot, ok := aliasToSlot[name]; ok {
				return fmt.Sprintf("yymsp[%d].major", slot)
			}
			return tok
		}
		if r.LHSAlias != "" && tok == r.LHSAlias {
			if lhsField < 0 {
				return "yygotominor"
			}
			return fmt.Sprintf("yygotominor.%s", fieldName(lhsField))
		}
		if slot, ok := aliasToSlot[tok]; ok {
			field := aliasToField[tok]
			if field < 0 {
				return fmt.Sprintf("yymsp[%d].minor", slot)
			}
			return fmt.Sprintf("yymsp[%d].minor.%s", slot, fieldName(field))
		}
		return tok
	})
}

// ReduceFuncName returns the generated per-rule reduce function's name,
// stable across runs as long as the rule's position in the grammar file
// doesn't change.
func ReduceFuncName(r *grammar.Rule) string {
	return fmt.Sprintf("yy_reduce_%d", r.IRule)
}
