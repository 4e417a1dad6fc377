package token

// keywords lists the reserved words recognised in folded form. Anything
// else lexes as an identifier.
var keywords = map[string]struct{}{
	"all": {}, "alter": {}, "and": {}, "as": {}, "asc": {}, "between": {},
	"by": {}, "case": {}, "cast": {}, "create": {}, "cross": {}, "delete": {},
	"desc": {}, "distinct": {}, "drop": {}, "else": {}, "end": {}, "except": {},
	"exists": {}, "false": {}, "fetch": {}, "from": {}, "full": {}, "group": {},
	"having": {}, "ilike": {}, "in": {}, "inner": {}, "insert": {},
	"intersect": {}, "interval": {}, "into": {}, "is": {}, "join": {},
	"left": {}, "like": {}, "limit": {}, "natural": {}, "not": {}, "null": {},
	"offset": {}, "on": {}, "or": {}, "order": {}, "outer": {}, "over": {},
	"partition": {}, "qualify": {}, "recursive": {}, "returning": {},
	"right": {}, "select": {}, "set": {}, "table": {}, "then": {}, "true": {},
	"union": {}, "update": {}, "using": {}, "values": {}, "view": {},
	"when": {}, "where": {}, "window": {}, "with": {},
}

// LookupKeyword reports whether the folded word is a keyword.
func LookupKeyword(folded string) bool {
	_, ok := keywords[folded]
	return ok
}
