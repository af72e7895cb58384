// Package normalize canonicalizes user-entered form values before they are
// validated or stored.
package normalize

import "strings"

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a person's name and collapses inner runs of whitespace.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// LoginID trims and lowercases a login id.
func LoginID(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Shirt trims and uppercases a shirt size ("xl" -> "XL").
func Shirt(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Text trims free text (comments, phone numbers).
func Text(s string) string {
	return strings.TrimSpace(s)
}
