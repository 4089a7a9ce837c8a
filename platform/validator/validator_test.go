package validator

import "testing"

func TestIsLinkedInURL(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"https://www.linkedin.com/in/jane-doe", true},
		{"https://linkedin.com/company/acme", true},
		{"http://in.linkedin.com/in/someone", true},
		{"https://www.linkedin.com/feed/", false},
		{"https://notlinkedin.com/in/jane", false},
		{"linkedin.com/in/jane", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := IsLinkedInURL(tc.in); got != tc.want {
			t.Errorf("IsLinkedInURL(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestIsEmployeeSize(t *testing.T) {
	valid := []string{"1-10", "51-200", "10000+", " 11-50 "}
	invalid := []string{"", "ten", "10-", "-10", "10000 +", "1 - 10"}

	for _, v := range valid {
		if !IsEmployeeSize(v) {
			t.Errorf("expected %q to be a valid employee size", v)
		}
	}
	for _, v := range invalid {
		if IsEmployeeSize(v) {
			t.Errorf("expected %q to be rejected", v)
		}
	}
}

func TestStructReportsFieldErrors(t *testing.T) {
	type form struct {
		Website  string `validate:"omitempty,url"`
		LinkedIn string `validate:"omitempty,linkedin"`
		Size     string `validate:"omitempty,empsize"`
	}

	val := New()
	err := val.Struct(form{LinkedIn: "https://example.com/in/x", Size: "lots"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	fields := FieldErrors(err)
	if fields["LinkedIn"] == "" {
		t.Fatalf("expected LinkedIn field error, got %v", fields)
	}
	if fields["Size"] == "" {
		t.Fatalf("expected Size field error, got %v", fields)
	}
	if _, ok := fields["Website"]; ok {
		t.Fatalf("did not expect Website error, got %v", fields)
	}
}
