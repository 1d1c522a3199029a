package adapter

import (
	"regexp"
	"sort"
	"strings"

	"fusion-agent-be/pkg/agent/domain"
)

var (
	lineComment   = regexp.MustCompile(`--[^\n]*`)
	blockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	stringLiteral = regexp.MustCompile(`'(?:[^']|'')*'`)
	quotedIdent   = regexp.MustCompile(`"([^"]*)"`)

	fromKeyword   = regexp.MustCompile(`(?i)\bfrom\b`)
	fromTerminal  = regexp.MustCompile(`(?i)\b(?:where|group\s+by|order\s+by|having|union|minus|intersect|connect\s+by|start\s+with|fetch|select)\b|;`)
	joinSplitter  = regexp.MustCompile(`(?i)\b(?:(?:left|right|full|inner|cross|natural)\s+)?(?:outer\s+)?join\b|,`)
	onClause      = regexp.MustCompile(`(?i)\b(?:on|using)\b`)
	derivedAlias  = regexp.MustCompile(`(?i)\)\s+(?:as\s+)?([a-z_][\w$#]*)`)
	qualifiedName = regexp.MustCompile(`(?i)\b([a-z_][\w$#]*)\s*\.\s*(?:[a-z_*][\w$#]*)`)
	cteName       = regexp.MustCompile(`(?i)(?:\bwith\b|,)\s*([a-z_][\w$#]*)\s+as\s*\(`)
	trailingWord  = regexp.MustCompile(`([a-z_][\w$#]*)\s*$`)
)

// FROM inside these calls is an argument keyword, not a table clause.
var fromFunctions = map[string]bool{"extract": true, "trim": true, "substring": true, "overlay": true}

var reservedWords = map[string]bool{
	"on": true, "using": true, "where": true, "left": true, "right": true, "full": true,
	"inner": true, "outer": true, "cross": true, "natural": true, "join": true, "group": true,
	"order": true, "having": true, "union": true, "minus": true, "intersect": true,
	"connect": true, "start": true, "fetch": true, "select": true, "and": true, "or": true,
}

// scrub removes comments and literals so their contents are not read as identifiers.
func scrub(sql string) string {
	sql = blockComment.ReplaceAllString(sql, " ")
	sql = lineComment.ReplaceAllString(sql, " ")
	sql = stringLiteral.ReplaceAllString(sql, "''")
	sql = quotedIdent.ReplaceAllString(sql, "$1")
	return strings.ToLower(sql)
}

type binding struct {
	table string
	alias string
}

func bareTable(table string) string {
	if dot := strings.LastIndex(table, "."); dot >= 0 {
		return table[dot+1:]
	}
	return table
}

func insideFunctionCall(sql string, pos int) bool {
	depth := 0
	for i := pos - 1; i >= 0; i-- {
		switch sql[i] {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				m := trailingWord.FindStringSubmatch(sql[:i])
				return m != nil && fromFunctions[m[1]]
			}
			depth--
		}
	}
	return false
}

// bindings lists the tables of every FROM and JOIN clause with their aliases.
// Derived tables are skipped; their inner FROM clauses are visited on their own.
func bindings(sql string) []binding {
	var out []binding
	for _, loc := range fromKeyword.FindAllStringIndex(sql, -1) {
		if insideFunctionCall(sql, loc[0]) {
			continue
		}
		segment := sql[loc[1]:]
		if end := fromTerminal.FindStringIndex(segment); end != nil {
			segment = segment[:end[0]]
		}
		for _, piece := range joinSplitter.Split(segment, -1) {
			if idx := onClause.FindStringIndex(piece); idx != nil {
				piece = piece[:idx[0]]
			}
			fields := strings.Fields(piece)
			if len(fields) == 0 || strings.HasPrefix(fields[0], "(") {
				continue
			}
			b := binding{table: strings.TrimRight(fields[0], ")")}
			if len(fields) > 1 {
				b.alias = fields[1]
				if b.alias == "as" && len(fields) > 2 {
					b.alias = fields[2]
				}
			}
			b.alias = strings.TrimRight(b.alias, ")")
			if reservedWords[b.alias] {
				b.alias = ""
			}
			if b.table != "" {
				out = append(out, b)
			}
		}
	}
	return out
}

// declaredNames collects the table names, their schemas and aliases declared in
// every FROM and JOIN clause.
func declaredNames(sql string) map[string]bool {
	names := make(map[string]bool)
	for _, b := range bindings(sql) {
		names[b.table] = true
		if dot := strings.LastIndex(b.table, "."); dot >= 0 {
			names[b.table[:dot]] = true
			names[b.table[dot+1:]] = true
		}
		if b.alias != "" {
			names[b.alias] = true
		}
	}
	for _, m := range derivedAlias.FindAllStringSubmatch(sql, -1) {
		if !reservedWords[m[1]] {
			names[m[1]] = true
		}
	}
	for _, m := range cteName.FindAllStringSubmatch(sql, -1) {
		names[m[1]] = true
	}
	return names
}

func qualifiers(sql string) map[string]bool {
	out := make(map[string]bool)
	for _, m := range qualifiedName.FindAllStringSubmatch(sql, -1) {
		out[m[1]] = true
	}
	return out
}

// UnknownIdentifiers lists what adapted references beyond the template: tables
// the template never reads, template aliases rebound to another table, and
// alias.column qualifiers neither the template nor the column mapping knows.
// Derived table and WITH names declared in adapted are accepted.
func UnknownIdentifiers(templateQuery, adapted string, columns []domain.Column) []string {
	tpl := scrub(templateQuery)

	tables := map[string]bool{"dual": true}
	aliasTables := make(map[string]map[string]bool)
	for _, b := range bindings(tpl) {
		t := bareTable(b.table)
		tables[t] = true
		if b.alias != "" {
			if aliasTables[b.alias] == nil {
				aliasTables[b.alias] = make(map[string]bool)
			}
			aliasTables[b.alias][t] = true
		}
	}
	for _, m := range cteName.FindAllStringSubmatch(tpl, -1) {
		tables[m[1]] = true
	}

	allowed := declaredNames(tpl)
	for q := range qualifiers(tpl) {
		allowed[q] = true
	}
	for _, c := range columns {
		for q := range qualifiers(scrub(c.Expression)) {
			allowed[q] = true
		}
	}

	out := scrub(adapted)
	for _, m := range cteName.FindAllStringSubmatch(out, -1) {
		tables[m[1]] = true
		allowed[m[1]] = true
	}
	for _, m := range derivedAlias.FindAllStringSubmatch(out, -1) {
		allowed[m[1]] = true
	}

	unknown := make(map[string]bool)
	for _, b := range bindings(out) {
		t := bareTable(b.table)
		if !tables[t] {
			unknown[t] = true
			continue
		}
		if dot := strings.LastIndex(b.table, "."); dot >= 0 {
			allowed[b.table[:dot]] = true
		}
		if b.alias == "" {
			continue
		}
		if bound, ok := aliasTables[b.alias]; ok && !bound[t] {
			unknown[b.alias] = true
			continue
		}
		allowed[b.alias] = true
	}
	for q := range qualifiers(out) {
		if !allowed[q] {
			unknown[q] = true
		}
	}

	var list []string
	for name := range unknown {
		list = append(list, name)
	}
	sort.Strings(list)
	return list
}
