package graph

import "strings"

// templateVar returns (name, true) if s is of the exact form "{{name}}" —
// start and end match, no embedded braces — and ("", false) otherwise.
// A literal string that merely starts with "{{" (e.g. "{{not a var}} ok")
// must never be mistaken for a template reference.
func templateVar(s string) (string, bool) {
	if len(s) < 4 || !strings.HasPrefix(s, "{{") || !strings.HasSuffix(s, "}}") {
		return "", false
	}
	inner := s[2 : len(s)-2]
	if inner == "" || strings.ContainsAny(inner, "{}") {
		return "", false
	}
	return inner, true
}
