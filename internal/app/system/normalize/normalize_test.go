package normalize

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  User@Example.Com  ", "user@example.com"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := Email(tt.in); got != tt.want {
			t.Errorf("Email(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"John Doe", "John Doe"},
		{"  John Doe  ", "John Doe"},
		{"John \t  Doe", "John Doe"},
		{"", ""},
		{"   ", ""},
		{"UPPERCASE NAME", "UPPERCASE NAME"}, // Name preserves case
	}
	for _, tt := range tests {
		if got := Name(tt.in); got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoginID(t *testing.T) {
	if got := LoginID("  Alice.Admin "); got != "alice.admin" {
		t.Errorf("LoginID = %q, want %q", got, "alice.admin")
	}
}

func TestShirt(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"xl", "XL"},
		{"  m ", "M"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Shirt(tt.in); got != tt.want {
			t.Errorf("Shirt(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestText(t *testing.T) {
	if got := Text("  call me maybe \n"); got != "call me maybe" {
		t.Errorf("Text = %q", got)
	}
}
