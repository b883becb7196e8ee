// Package predicate builds parameterized SQL WHERE fragments for multi-term substring search.
package predicate

import (
	"errors"
	"strings"
)

// ErrNoTerms is returned when a substring predicate is requested for zero terms.
var ErrNoTerms = errors.New("predicate: no search terms")

// FoldFunc is the SQL function Contains applies to the searched expression. The database
// must register it as a Unicode lower-casing function (strings.ToLower).
const FoldFunc = "fold"

// Predicate is a WHERE fragment with its positional arguments.
type Predicate struct {
	Clause string
	Args   []any
}

// Empty reports whether p constrains nothing.
func (p Predicate) Empty() bool {
	return p.Clause == ""
}

// Contains requires every term to appear as a substring of expr (AND semantics).
// expr is a column or SQL expression, e.g. "title" or "(title || ' ' || search_text)".
// Both expr (through FoldFunc) and the terms are lower-cased, so matching ignores case
// beyond ASCII. '%' and '_' inside terms are not escaped and act as wildcards.
func Contains(expr string, terms []string) (Predicate, error) {
	if len(terms) == 0 {
		return Predicate{}, ErrNoTerms
	}
	conds := make([]string, len(terms))
	args := make([]any, len(terms))
	for i, term := range terms {
		conds[i] = FoldFunc + "(" + expr + ") LIKE ?"
		args[i] = "%" + strings.ToLower(term) + "%"
	}
	return Predicate{Clause: strings.Join(conds, " AND "), Args: args}, nil
}

// NotIn excludes rows whose column equals any of ids. No ids gives an empty predicate.
func NotIn(column string, ids []string) Predicate {
	if len(ids) == 0 {
		return Predicate{}
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return Predicate{
		Clause: column + " NOT IN (" + strings.Join(placeholders, ",") + ")",
		Args:   args,
	}
}

// And joins the non-empty predicates with AND, parenthesizing each.
func And(preds ...Predicate) Predicate {
	var clauses []string
	var args []any
	for _, p := range preds {
		if p.Empty() {
			continue
		}
		clauses = append(clauses, "("+p.Clause+")")
		args = append(args, p.Args...)
	}
	return Predicate{Clause: strings.Join(clauses, " AND "), Args: args}
}
