package domain

import "unique"

// symbol is an interned string. Every target of a large graph repeats the same few
// cell and package names, so BuildTarget stores its parts as handles: they are
// pointer-sized and compare in constant time. The empty string interns to the zero
// symbol, which keeps the zero BuildTarget equal to one parsed from empty parts.
type symbol unique.Handle[string]

func intern(s string) symbol {
	if s == "" {
		return symbol{}
	}
	return symbol(unique.Make(s))
}

func (s symbol) String() string {
	if s == (symbol{}) {
		return ""
	}
	return unique.Handle[string](s).Value()
}
