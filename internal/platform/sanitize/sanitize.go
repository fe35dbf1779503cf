package sanitize

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text normalizes plain user text for storage. Content is kept as typed, including
// angle brackets; only invalid UTF-8 and control characters other than newline and tab go.
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			return r
		}
		return -1
	}, s)
	return strings.TrimSpace(s)
}

// HTMLToText drops every tag from an HTML document and collapses whitespace.
// Block level tags are replaced by line breaks first so paragraphs stay apart.
func HTMLToText(doc string) string {
	r := strings.NewReplacer(
		"</p>", "</p>\n", "<br>", "\n", "<br/>", "\n", "<br />", "\n",
		"</div>", "</div>\n", "</li>", "</li>\n", "</h1>", "</h1>\n",
		"</h2>", "</h2>\n", "</h3>", "</h3>\n", "</tr>", "</tr>\n",
	)
	plain := html.UnescapeString(strict.Sanitize(r.Replace(doc)))
	lines := strings.Split(plain, "\n")
	out := make([]string, 0, len(lines))
	for _, ln := range lines {
		if f := strings.Join(strings.Fields(ln), " "); f != "" {
			out = append(out, f)
		}
	}
	return strings.Join(out, "\n")
}
