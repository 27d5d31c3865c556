// Package sqlnorm turns LLM-generated SQL into a statement that can run
// against the attached coin databases.
//
// The rewrites are text transforms over a known input shape (one statement,
// the registry's alias vocabulary), not a SQL parser. They never fail; the
// worst case is a best-effort statement that the executor later rejects.
package sqlnorm

import (
	"regexp"
	"strings"

	"github.com/aman-zulfiqar/coinquery/internal/schema"
)

var (
	openFenceRe  = regexp.MustCompile("^\\s*```[\\w+.-]*\\s*$")
	closeFenceRe = regexp.MustCompile("^\\s*```\\s*$")
	orderByRe    = regexp.MustCompile(`(?i)\bORDER\s+BY\b`)
	setOpRe      = regexp.MustCompile(`(?i)^(?:UNION|INTERSECT|EXCEPT)\b`)
)

type qualifier struct {
	re    *regexp.Regexp
	alias string
	table string
}

// Normalizer rewrites raw generator output into canonical SQL.
type Normalizer struct {
	qualifiers []qualifier
}

// New creates a Normalizer that qualifies the aliases known to reg.
func New(reg *schema.Registry) *Normalizer {
	n := &Normalizer{}
	for _, e := range reg.Entries() {
		n.qualifiers = append(n.qualifiers, qualifier{
			re:    regexp.MustCompile(`(?i)\b(FROM|JOIN)\s+` + regexp.QuoteMeta(e.Alias) + `\b(\.)?`),
			alias: e.Alias,
			table: e.Table,
		})
	}
	return n
}

// Normalize strips fences, collapses ORDER BY clauses and qualifies aliases,
// in that order.
func (n *Normalizer) Normalize(raw string) string {
	return n.QualifyAliases(CollapseOrderBy(StripFences(raw)))
}

// StripFences removes a leading ```lang line and a trailing ``` line,
// repeating until neither is present.
func StripFences(s string) string {
	for {
		s = strings.TrimSpace(s)
		if s == "" {
			return s
		}

		first, rest, multiline := strings.Cut(s, "\n")
		if openFenceRe.MatchString(first) {
			if !multiline {
				return ""
			}
			s = rest
			continue
		}

		if i := strings.LastIndexByte(s, '\n'); i >= 0 && closeFenceRe.MatchString(s[i+1:]) {
			s = s[:i]
			continue
		}
		return s
	}
}

// CollapseOrderBy keeps only the last ORDER BY clause and moves it to the
// end of the statement. Text without ORDER BY is returned unchanged.
//
// A clause runs until ';', an unbalanced ')', a set operator at its own
// depth, or the end of the text. Clauses inside subqueries are collapsed too.
// String literals and comments are not skipped.
func CollapseOrderBy(s string) string {
	locs := orderByRe.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return s
	}

	type span struct{ start, end int }
	spans := make([]span, 0, len(locs))
	for _, loc := range locs {
		if n := len(spans); n > 0 && loc[0] < spans[n-1].end {
			continue
		}
		spans = append(spans, span{start: loc[0], end: clauseEnd(s, loc[1])})
	}

	last := spans[len(spans)-1]
	kept := strings.TrimSpace(s[last.start:last.end])

	var b strings.Builder
	prev := 0
	for _, sp := range spans {
		b.WriteString(s[prev:sp.start])
		prev = sp.end
	}
	b.WriteString(s[prev:])

	rest := trimTerminators(b.String())
	if rest == "" {
		return kept
	}
	return rest + "\n" + kept
}

// QualifyAliases rewrites "FROM alias" and "JOIN alias" into
// "FROM alias.TABLE" / "JOIN alias.TABLE". Qualified references are left alone.
func (n *Normalizer) QualifyAliases(s string) string {
	for _, q := range n.qualifiers {
		s = q.apply(s)
	}
	return s
}

func (q qualifier) apply(s string) string {
	matches := q.re.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder
	prev := 0
	for _, m := range matches {
		// m[4] is the optional trailing '.' group
		if m[4] >= 0 {
			continue
		}
		b.WriteString(s[prev:m[0]])
		b.WriteString(strings.ToUpper(s[m[2]:m[3]]))
		b.WriteByte(' ')
		b.WriteString(q.alias)
		b.WriteByte('.')
		b.WriteString(q.table)
		prev = m[1]
	}
	b.WriteString(s[prev:])
	return b.String()
}

func clauseEnd(s string, from int) int {
	depth := 0
	for i := from; i < len(s); i++ {
		switch c := s[i]; c {
		case ';':
			return i
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return i
			}
			depth--
		default:
			if depth == 0 && isSetOpStart(c) && (i == 0 || !isWordByte(s[i-1])) && setOpRe.MatchString(s[i:]) {
				return i
			}
		}
	}
	return len(s)
}

func trimTerminators(s string) string {
	for {
		t := strings.TrimRight(strings.TrimSpace(s), ";")
		if t == s {
			return t
		}
		s = t
	}
}

func isSetOpStart(c byte) bool {
	switch c | 0x20 {
	case 'u', 'i', 'e':
		return true
	}
	return false
}

func isWordByte(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
