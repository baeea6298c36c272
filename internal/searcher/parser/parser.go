// Package parser extracts boolean constraints from a normalized query.
//
// Operators are recognized only between two neighbours: a term equal to "and",
// "or" or "not" at the first or last position is an ordinary term. Chained
// expressions such as "a and b or c" are not parsed as a tree; every operator
// pairs its immediate neighbours.
package parser

const (
	opAnd = "and"
	opOr  = "or"
	opNot = "not"
)

// Pair is a binary constraint on two operand terms.
type Pair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

type QueryPlan struct {
	// Terms is the query with recognized operators removed. Weight vectors
	// are aligned to its positions.
	Terms []string `json:"terms"`
	And   []Pair   `json:"and,omitempty"`
	Or    []Pair   `json:"or,omitempty"`
	Not   []string `json:"not,omitempty"`
}

// HasConstraints reports whether the plan carries any boolean filter.
func (p *QueryPlan) HasConstraints() bool {
	return len(p.And) > 0 || len(p.Or) > 0 || len(p.Not) > 0
}

// Parse builds a plan from terms already normalized by the analyzer.
func Parse(terms []string) *QueryPlan {
	plan := &QueryPlan{Terms: make([]string, 0, len(terms))}
	operator := make([]bool, len(terms))
	for i := 1; i < len(terms)-1; i++ {
		switch terms[i] {
		case opAnd:
			plan.And = append(plan.And, Pair{Left: terms[i-1], Right: terms[i+1]})
		case opOr:
			plan.Or = append(plan.Or, Pair{Left: terms[i-1], Right: terms[i+1]})
		case opNot:
			plan.Not = append(plan.Not, terms[i+1])
		default:
			continue
		}
		operator[i] = true
	}
	for i, term := range terms {
		if !operator[i] {
			plan.Terms = append(plan.Terms, term)
		}
	}
	return plan
}

// Position returns the first index of term in plan.Terms, or -1.
func (p *QueryPlan) Position(term string) int {
	for i, t := range p.Terms {
		if t == term {
			return i
		}
	}
	return -1
}
