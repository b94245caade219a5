package validations

import "testing"

type signupForm struct {
	Mobile string `json:"mobile" binding:"required,mobile"`
	Date   string `json:"date" binding:"omitempty,iso8601"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		form    signupForm
		wantErr bool
	}{
		{"valid", signupForm{Mobile: "0912345678"}, false},
		{"valid international", signupForm{Mobile: "+249912345678"}, false},
		{"valid with date", signupForm{Mobile: "0912345678", Date: "2026-03-08T14:00:00Z"}, false},
		{"missing mobile", signupForm{}, true},
		{"short mobile", signupForm{Mobile: "12345"}, true},
		{"letters in mobile", signupForm{Mobile: "09123abc78"}, true},
		{"bad date", signupForm{Mobile: "0912345678", Date: "08/03/2026"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.form)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateStructIgnoresNonStructs(t *testing.T) {
	if err := ValidateStruct("not a struct"); err != nil {
		t.Errorf("non-struct should pass, got %v", err)
	}
	if err := ValidateStruct(42); err != nil {
		t.Errorf("non-struct should pass, got %v", err)
	}
}

func TestFieldsUsesJSONNames(t *testing.T) {
	err := ValidateStruct(signupForm{Date: "nope"})
	if err == nil {
		t.Fatal("expected validation failure")
	}
	fields := Fields(err)
	if fields["mobile"] != "required" {
		t.Errorf("fields[mobile] = %v, want required", fields["mobile"])
	}
	if fields["date"] != "iso8601" {
		t.Errorf("fields[date] = %v, want iso8601", fields["date"])
	}
}

func TestFieldsNonValidationError(t *testing.T) {
	if got := Fields(errNotValidation{}); got != nil {
		t.Errorf("Fields() = %v, want nil", got)
	}
}

type errNotValidation struct{}

func (errNotValidation) Error() string { return "boom" }
