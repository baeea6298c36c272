package parser

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		terms []string
		want  *QueryPlan
	}{
		{
			name:  "empty",
			terms: nil,
			want:  &QueryPlan{Terms: []string{}},
		},
		{
			name:  "plain terms",
			terms: []string{"cat", "dog"},
			want:  &QueryPlan{Terms: []string{"cat", "dog"}},
		},
		{
			name:  "and",
			terms: []string{"dog", "and", "cat"},
			want: &QueryPlan{
				Terms: []string{"dog", "cat"},
				And:   []Pair{{"dog", "cat"}},
			},
		},
		{
			name:  "or",
			terms: []string{"fish", "or", "cat"},
			want: &QueryPlan{
				Terms: []string{"fish", "cat"},
				Or:    []Pair{{"fish", "cat"}},
			},
		},
		{
			name:  "not",
			terms: []string{"cat", "not", "dog"},
			want: &QueryPlan{
				Terms: []string{"cat", "dog"},
				Not:   []string{"dog"},
			},
		},
		{
			name:  "operator at first position is a term",
			terms: []string{"and", "cat", "dog"},
			want:  &QueryPlan{Terms: []string{"and", "cat", "dog"}},
		},
		{
			name:  "operator at last position is a term",
			terms: []string{"cat", "dog", "or"},
			want:  &QueryPlan{Terms: []string{"cat", "dog", "or"}},
		},
		{
			name:  "chained operators pair neighbours",
			terms: []string{"a", "and", "b", "or", "c"},
			want: &QueryPlan{
				Terms: []string{"a", "b", "c"},
				And:   []Pair{{"a", "b"}},
				Or:    []Pair{{"b", "c"}},
			},
		},
		{
			name:  "adjacent operators",
			terms: []string{"a", "and", "not", "b"},
			want: &QueryPlan{
				Terms: []string{"a", "b"},
				And:   []Pair{{"a", "not"}},
				Not:   []string{"b"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.terms)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.terms, got, tt.want)
			}
		})
	}
}

func TestPosition(t *testing.T) {
	plan := Parse([]string{"cat", "dog", "cat"})
	if got := plan.Position("cat"); got != 0 {
		t.Errorf("Position(cat) = %d, want 0", got)
	}
	if got := plan.Position("dog"); got != 1 {
		t.Errorf("Position(dog) = %d, want 1", got)
	}
	if got := plan.Position("fish"); got != -1 {
		t.Errorf("Position(fish) = %d, want -1", got)
	}
	if plan.HasConstraints() {
		t.Error("plain query reported constraints")
	}
}
