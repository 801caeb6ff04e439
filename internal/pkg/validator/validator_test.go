package validator

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"+211 925 551 234", "+211925551234", false},
		{"(0925) 551-234", "0925551234", false},
		{"0925551234", "0925551234", false},
		{"123456", "", true},      // too short
		{"092555x234", "", true},  // invalid character
		{"09255+1234", "", true},  // plus not leading
		{"+1234567890123456", "", true}, // too long
	}

	for _, tt := range tests {
		got, err := NormalizePhone(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizePhone(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail("merchant@example.com"); err != nil {
		t.Errorf("Unexpected error for valid email: %v", err)
	}
	for _, bad := range []string{"no-at-sign", "two@@example.com", "@example.com", "user@nodot"} {
		if err := ValidateEmail(bad); err == nil {
			t.Errorf("Expected error for %q, got nil", bad)
		}
	}
}
