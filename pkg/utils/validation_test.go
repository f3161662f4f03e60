package utils

import (
	"errors"
	"testing"
)

func TestRequireFields(t *testing.T) {
	err := RequireFields(Field{"name", "Asha"}, Field{"email", "  "}, Field{"phone", ""})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if ve.Field != "email" {
		t.Errorf("Field = %q, want the first blank field %q", ve.Field, "email")
	}

	if err := RequireFields(Field{"name", "Asha"}); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestValidateEmail(t *testing.T) {
	for _, ok := range []string{"a@x.com", "Farmer.Joe@Example.co.in"} {
		if err := ValidateEmail(ok); err != nil {
			t.Errorf("ValidateEmail(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "a@x", "no-at.com", "a b@x.com"} {
		if err := ValidateEmail(bad); err == nil {
			t.Errorf("ValidateEmail(%q) should fail", bad)
		}
	}
}
