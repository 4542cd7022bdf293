package classfile

import (
	"strings"

	"golang.org/x/exp/ebnf"
)

// DescriptorEBNF is the descriptor language accepted by ParseFieldType and
// ParseMethodType. className is looser than the parser: the parser takes
// any run of bytes up to ';'.
const DescriptorEBNF = `
MethodDescriptor = "(" { FieldType } ")" ReturnType .
ReturnType       = FieldType | "V" .
FieldType        = BaseType | ObjectType | ArrayType .
BaseType         = "B" | "C" | "D" | "F" | "I" | "J" | "S" | "Z" .
ObjectType       = "L" className ";" .
ArrayType        = "[" FieldType .
className        = classChar { classChar } .
classChar        = "a" … "z" | "A" … "Z" | "0" … "9" | "/" | "_" | "$" .
`

const descriptorStart = "MethodDescriptor"

// DescriptorGrammar parses and verifies DescriptorEBNF.
func DescriptorGrammar() (ebnf.Grammar, error) {
	grammar, err := ebnf.Parse("descriptor.ebnf", strings.NewReader(DescriptorEBNF))
	if err != nil {
		return nil, err
	}
	if err := ebnf.Verify(grammar, descriptorStart); err != nil {
		return nil, err
	}
	return grammar, nil
}

// MatchDescriptor reports whether desc is exactly one sentence of the named
// production of grammar, typically "FieldType" or "MethodDescriptor".
func MatchDescriptor(grammar ebnf.Grammar, production, desc string) bool {
	m := &grammarMatcher{
		grammar:  grammar,
		input:    desc,
		memo:     make(map[matchKey]int),
		visiting: make(map[matchKey]bool),
	}
	return m.name(production, 0) == len(desc)
}

type matchKey struct {
	name   string
	offset int
}

// grammarMatcher matches greedily: alternatives take the longest match and
// repetitions consume as much as they can. A result of -1 means no match.
type grammarMatcher struct {
	grammar  ebnf.Grammar
	input    string
	memo     map[matchKey]int
	visiting map[matchKey]bool
}

func (m *grammarMatcher) match(expr ebnf.Expression, offset int) int {
	switch e := expr.(type) {
	case *ebnf.Token:
		if strings.HasPrefix(m.input[offset:], e.String) {
			return len(e.String)
		}
		return -1

	case *ebnf.Range:
		if offset >= len(m.input) || len(e.Begin.String) != 1 || len(e.End.String) != 1 {
			return -1
		}
		if ch := m.input[offset]; ch >= e.Begin.String[0] && ch <= e.End.String[0] {
			return 1
		}
		return -1

	case ebnf.Sequence:
		total := 0
		for _, item := range e {
			n := m.match(item, offset+total)
			if n < 0 {
				return -1
			}
			total += n
		}
		return total

	case ebnf.Alternative:
		best := -1
		for _, alt := range e {
			best = max(best, m.match(alt, offset))
		}
		return best

	case *ebnf.Repetition:
		total := 0
		for {
			n := m.match(e.Body, offset+total)
			if n <= 0 {
				return total
			}
			total += n
		}

	case *ebnf.Option:
		return max(0, m.match(e.Body, offset))

	case *ebnf.Group:
		return m.match(e.Body, offset)

	case *ebnf.Name:
		return m.name(e.String, offset)

	default:
		return -1
	}
}

func (m *grammarMatcher) name(name string, offset int) int {
	key := matchKey{name: name, offset: offset}
	if n, ok := m.memo[key]; ok {
		return n
	}
	// left recursion
	if m.visiting[key] {
		return -1
	}
	prod, ok := m.grammar[name]
	if !ok || prod.Expr == nil {
		return -1
	}

	m.visiting[key] = true
	n := m.match(prod.Expr, offset)
	delete(m.visiting, key)

	m.memo[key] = n
	return n
}
