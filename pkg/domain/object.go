package domain

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Object is a managed building or facility.
type Object struct {
	Id   int
	Name string

	// Objanlage is the raw configuration document of the object.
	//
	// nil when the column is NULL.
	Objanlage []byte
}

// Role is a key in an object configuration naming a mandant.
type Role string

const (
	Craftsman Role = "handwerker"
	Owner     Role = "besitzer"
	Operator  Role = "betreiber"
	Caretaker Role = "hausmeister"
)

// Roles lists roles in the order they are looked up.
func Roles() []Role {
	return []Role{Craftsman, Owner, Operator, Caretaker}
}

func (r Role) String() string {
	return string(r)
}

var (
	// object has no configuration (NULL or JSON null).
	ErrNoObjanlage = errors.New("object has no configuration")

	// object configuration is not a JSON object.
	ErrMalformedObjanlage = errors.New("object configuration is malformed")
)

// Objanlage is a decoded object configuration.
//
// Only role fields are interpreted. Other fields are kept as they are.
type Objanlage map[string]any

// ParseObjanlage decodes a raw object configuration.
//
// A JSON string containing a JSON object (double-encoded configuration) is accepted.
//
// # Returns
//
// - Objanlage: the configuration.
//
// - error: ErrNoObjanlage if raw is empty or `null`,
// ErrMalformedObjanlage if raw is not a JSON object.
func ParseObjanlage(raw []byte) (Objanlage, error) {
	return parseObjanlage(raw, true)
}

func parseObjanlage(raw []byte, unquote bool) (Objanlage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, ErrNoObjanlage
	}

	switch raw[0] {
	case '{':
		conf := Objanlage{}
		if err := json.Unmarshal(raw, &conf); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedObjanlage, err)
		}
		return conf, nil
	case '"':
		if !unquote {
			break
		}
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedObjanlage, err)
		}
		conf, err := parseObjanlage([]byte(inner), false)
		if errors.Is(err, ErrNoObjanlage) {
			return nil, fmt.Errorf("%w: blank string", ErrMalformedObjanlage)
		}
		return conf, err
	}

	return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedObjanlage)
}

// Name returns the mandant name in the role.
//
// It is trimmed. ok is false when the role is absent, not a string or blank.
func (o Objanlage) Name(role Role) (name string, ok bool) {
	v, found := o[string(role)]
	if !found {
		return "", false
	}
	s, isString := v.(string)
	if !isString {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// RoleNames returns mandant names found in the configuration, in the order of Roles().
//
// Names can be duplicated when a mandant is in two or more roles.
func (o Objanlage) RoleNames() []RoleName {
	names := []RoleName{}
	for _, r := range Roles() {
		if n, ok := o.Name(r); ok {
			names = append(names, RoleName{Role: r, Name: n})
		}
	}
	return names
}

// RoleName is a mandant name found in a role of an object configuration.
type RoleName struct {
	Role Role
	Name string
}
