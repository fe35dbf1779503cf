package sanitize

import "testing"

func TestText(t *testing.T) {
	cases := map[string]string{
		"":                        "",
		"  plain  ":               "plain",
		"Is a<b for all a?":       "Is a<b for all a?",
		"x<y and y<z":             "x<y and y<z",
		"Use List<String> here":   "Use List<String> here",
		"fish & chips":            "fish & chips",
		"line one\nline\ttwo\x00": "line one\nline\ttwo",
		"bad \xff byte":           "bad  byte",
	}
	for in, want := range cases {
		if got := Text(in); got != want {
			t.Errorf("Text(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHTMLToText(t *testing.T) {
	doc := "<html><body><h1>Title</h1><p>First   para.</p><p>Second<br>line</p><script>x()</script></body></html>"
	want := "Title\nFirst para.\nSecond\nline"
	if got := HTMLToText(doc); got != want {
		t.Fatalf("HTMLToText = %q, want %q", got, want)
	}
}
