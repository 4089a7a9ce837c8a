package sanitize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  plain  ", want: "plain"},
		{in: "<b>bold</b> move", want: "bold move"},
		{in: "&lt;script&gt;alert(1)&lt;/script&gt;ok", want: "alert(1)ok"},
		{in: "Tom &amp; Jerry", want: "Tom & Jerry"},
		{in: "line one\nline two", want: "line one\nline two"},
	}
	for _, tt := range tests {
		if got := Text(tt.in); got != tt.want {
			t.Fatalf("Text(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLine(t *testing.T) {
	if got := Line(" Call \n  <i>back</i>\tsoon "); got != "Call back soon" {
		t.Fatalf("Line = %q", got)
	}
}
