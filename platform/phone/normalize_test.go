package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{" 98765 43210 ", "+919876543210"},
		{"+91 98765 43210", "+919876543210"},
		{"not a number", "not a number"},
		{"  12  ", "12"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeE164(tt.in); got != tt.want {
			t.Fatalf("NormalizeE164(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsValidMobile(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"9876543210", true},
		{"+919876543210", true},
		{"12", false},
		{"", false},
		{"abc", false},
	}
	for _, tt := range tests {
		if got := IsValidMobile(tt.in); got != tt.want {
			t.Fatalf("IsValidMobile(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
