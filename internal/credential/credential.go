// Package credential models the Gerrit URL/username/password triple read
// from settings. Every field is optional, and completeness and equivalence
// are decided field by field. An empty value is present, so it differs from
// an unset key, but it never makes a set complete.
package credential

import (
	"errors"
	"fmt"
	"strings"
)

// Settings keys holding the Gerrit connection credentials.
const (
	KeyURL      = "gerrit.auth.url"
	KeyUsername = "gerrit.auth.username"
	KeyPassword = "gerrit.auth.password"
)

// ErrIncomplete reports a Set lacking at least one field.
var ErrIncomplete = errors.New("incomplete gerrit credentials")

// Getter supplies a single setting value on demand.
// The boolean is false when the key has no value.
type Getter interface {
	Get(key string) (string, bool)
}

// Field is a setting value that is either present or absent.
// The zero value is absent.
type Field struct {
	value   string
	present bool
}

// Present returns a field holding value.
func Present(value string) Field {
	return Field{value: value, present: true}
}

// Absent returns a field holding no value.
func Absent() Field {
	return Field{}
}

// FieldOf converts a lookup result into a Field. A key that is set to an
// empty string is present.
func FieldOf(value string, ok bool) Field {
	if !ok {
		return Absent()
	}

	return Present(value)
}

func nonEmpty(value string) Field {
	if value == "" {
		return Absent()
	}

	return Present(value)
}

// Get returns the value and whether it is present.
func (f Field) Get() (string, bool) {
	return f.value, f.present
}

// IsPresent reports whether the field holds a value.
func (f Field) IsPresent() bool {
	return f.present
}

// usable reports whether the field holds a non-empty value.
func (f Field) usable() bool {
	return f.present && f.value != ""
}

// Value returns the value, or "" when absent.
func (f Field) Value() string {
	return f.value
}

// Set is the URL/username/password triple used to authenticate against Gerrit.
type Set struct {
	URL      Field
	Username Field
	Password Field
}

// New builds a Set from raw strings, treating empty strings as absent.
func New(url, username, password string) Set {
	return Set{
		URL:      nonEmpty(url),
		Username: nonEmpty(username),
		Password: nonEmpty(password),
	}
}

// Read pulls a fresh Set from g. The three keys are read independently.
func Read(g Getter) Set {
	return Set{
		URL:      FieldOf(g.Get(KeyURL)),
		Username: FieldOf(g.Get(KeyUsername)),
		Password: FieldOf(g.Get(KeyPassword)),
	}
}

// Complete reports whether all three fields hold non-empty values.
func (s Set) Complete() bool {
	return s.URL.usable() && s.Username.usable() && s.Password.usable()
}

// Equivalent reports whether every field of s matches other exactly.
// An absent field only matches another absent field.
func (s Set) Equivalent(other Set) bool {
	return s.URL == other.URL &&
		s.Username == other.Username &&
		s.Password == other.Password
}

// Missing returns the settings keys without a non-empty value, in URL,
// username, password order.
func (s Set) Missing() []string {
	var keys []string

	if !s.URL.usable() {
		keys = append(keys, KeyURL)
	}

	if !s.Username.usable() {
		keys = append(keys, KeyUsername)
	}

	if !s.Password.usable() {
		keys = append(keys, KeyPassword)
	}

	return keys
}

// Validate returns ErrIncomplete naming the missing keys, or nil.
func (s Set) Validate() error {
	if missing := s.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
	}

	return nil
}

// Values maps every present field to its settings key.
func (s Set) Values() map[string]string {
	values := make(map[string]string, 3)

	if s.URL.present {
		values[KeyURL] = s.URL.value
	}

	if s.Username.present {
		values[KeyUsername] = s.Username.value
	}

	if s.Password.present {
		values[KeyPassword] = s.Password.value
	}

	return values
}

// Overlay returns s with every present field of top replacing its counterpart.
func (s Set) Overlay(top Set) Set {
	out := s

	if top.URL.present {
		out.URL = top.URL
	}

	if top.Username.present {
		out.Username = top.Username
	}

	if top.Password.present {
		out.Password = top.Password
	}

	return out
}

// String renders the set with the password redacted.
func (s Set) String() string {
	password := "<absent>"
	if s.Password.present {
		password = "<redacted>"
	}

	return fmt.Sprintf("{url: %s, username: %s, password: %s}",
		describe(s.URL), describe(s.Username), password)
}

func describe(f Field) string {
	if !f.present {
		return "<absent>"
	}

	return fmt.Sprintf("%q", strings.TrimSpace(f.value))
}
