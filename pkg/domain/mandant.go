package domain

import "strings"

// Mandant is an organizational party (tenant) associated with objects.
type Mandant struct {
	Id   int
	Name string
}

// NameKey is the key to look up mandants by name.
//
// Names are compared case-insensitively.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
