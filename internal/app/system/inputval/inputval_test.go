package inputval

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"user.name+tag@example.com", true},
		{"user@subdomain.example.co.uk", true},
		{"a@b.co", true},
		{"user@localhost", true},

		{"", false},
		{"   ", false},
		{"user", false},
		{"user@", false},
		{"@example.com", false},
		{".user@example.com", false},
		{"user.@example.com", false},
		{"user..name@example.com", false},
		{"user@.example.com", false},
		{"user@example..com", false},
		{"User Name <user@example.com>", false},
		{"user @example.com", false},
		{"user@exam ple.com", false},
		{"user@ex_ample.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestValidate_Messages(t *testing.T) {
	type input struct {
		Name    string   `validate:"required,max=10" label:"Full name"`
		Email   string   `validate:"required,email" label:"E-mail"`
		Shirt   string   `validate:"omitempty,oneof=S M L" label:"T-shirt"`
		Privacy bool     `validate:"accepted" label:"Privacy statement"`
		Shifts  []string `validate:"min=1" label:"Shifts"`
	}
	valid := input{Name: "John", Email: "john@example.com", Privacy: true, Shifts: []string{"x"}}

	tests := []struct {
		name      string
		mutate    func(*input)
		wantField string
		wantFirst string
	}{
		{"missing name", func(in *input) { in.Name = "" }, "Name", "Full name is required."},
		{"name too long", func(in *input) { in.Name = "VeryLongNameIndeed" }, "Name", "Full name must be at most 10 characters."},
		{"invalid email", func(in *input) { in.Email = "not-an-email" }, "Email", "A valid email address is required."},
		{"bad shirt", func(in *input) { in.Shirt = "XXXL" }, "Shirt", "T-shirt is not a valid choice."},
		{"privacy not accepted", func(in *input) { in.Privacy = false }, "Privacy", "Privacy statement must be accepted."},
		{"no shifts", func(in *input) { in.Shifts = nil }, "Shifts", "Shifts: select at least 1."},
	}

	if res := Validate(valid); res.HasErrors() {
		t.Fatalf("valid input has errors: %v", res.All())
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			res := Validate(in)
			if !res.HasErrors() {
				t.Fatal("expected errors")
			}
			if res.First() != tt.wantFirst {
				t.Errorf("First() = %q, want %q", res.First(), tt.wantFirst)
			}
			if _, ok := res.ByField()[tt.wantField]; !ok {
				t.Errorf("ByField() missing %q: %v", tt.wantField, res.ByField())
			}
		})
	}
}

func TestValidate_CustomRules(t *testing.T) {
	type ids struct {
		ID   string `validate:"required,objectid" label:"Helper"`
		Slug string `validate:"required,urlname" label:"URL name"`
	}

	if res := Validate(ids{ID: "507f1f77bcf86cd799439011", Slug: "summer-fest-2026"}); res.HasErrors() {
		t.Errorf("unexpected errors: %v", res.All())
	}
	if res := Validate(ids{ID: "nope", Slug: "Summer Fest"}); len(res.Errors) != 2 {
		t.Errorf("expected 2 errors, got %v", res.Errors)
	}
}

func TestResult_AllAndFirst(t *testing.T) {
	r := &Result{}
	if r.First() != "" || r.All() != "" {
		t.Errorf("empty result: First=%q All=%q", r.First(), r.All())
	}

	r.Add("A", "Error 1")
	r.Add("B", "Error 2")
	r.Add("A", "Error 3")

	if r.First() != "Error 1" {
		t.Errorf("First() = %q", r.First())
	}
	if r.All() != "Error 1; Error 2; Error 3" {
		t.Errorf("All() = %q", r.All())
	}
	if got := r.ByField()["A"]; got != "Error 1" {
		t.Errorf("ByField()[A] = %q, want first message", got)
	}
}
