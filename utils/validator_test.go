package utils

import "testing"

type sampleForm struct {
	Username             string `validate:"required,username"`
	Email                string `validate:"required,email"`
	Password             string `validate:"required,pwdmin"`
	PasswordConfirmation string `validate:"required,eqfield=Password"`
}

func validForm() sampleForm {
	return sampleForm{
		Username:             "alice",
		Email:                "alice@example.com",
		Password:             "hunter22",
		PasswordConfirmation: "hunter22",
	}
}

func TestValidateStructAccepts(t *testing.T) {
	f := validForm()
	if err := ValidateStruct(&f); err != nil {
		t.Fatalf("expected valid form, got %v", err)
	}
}

func TestValidateStructRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*sampleForm)
	}{
		{"missing username", func(f *sampleForm) { f.Username = "" }},
		{"bad username chars", func(f *sampleForm) { f.Username = "al ice!" }},
		{"username too short", func(f *sampleForm) { f.Username = "ab" }},
		{"missing email", func(f *sampleForm) { f.Email = "" }},
		{"bad email", func(f *sampleForm) { f.Email = "nope" }},
		{"short password", func(f *sampleForm) { f.Password = "abc"; f.PasswordConfirmation = "abc" }},
		{"confirmation mismatch", func(f *sampleForm) { f.PasswordConfirmation = "other99" }},
	}
	for _, tc := range cases {
		f := validForm()
		tc.mutate(&f)
		if err := ValidateStruct(&f); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestValidateStructNonStruct(t *testing.T) {
	if err := ValidateStruct("not a struct"); err == nil {
		t.Fatal("expected error for non-struct input")
	}
}
