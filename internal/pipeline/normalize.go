package pipeline

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"rentdesk/internal"
)

var (
	reSpaces     = regexp.MustCompile(`[ \t\x{00a0}]+`)
	reBlankLines = regexp.MustCompile(`\n{2,}`)
)

// Normalize returns the plain text a message should be extracted from.
// A non-empty text body wins; otherwise the HTML body is flattened to
// text. Returns "" when neither body yields anything usable.
func Normalize(msg internal.RawMessage) string {
	if text := strings.TrimSpace(msg.Text); text != "" {
		return text
	}
	if strings.TrimSpace(msg.HTML) != "" {
		return htmlToText(msg.HTML)
	}
	return ""
}

// htmlToText flattens vendor HTML: style/script blocks are dropped,
// line/paragraph/row/cell boundaries become newlines, entities are
// decoded by the parser, whitespace runs collapse.
func htmlToText(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}

	doc.Find("style,script,noscript,head").Remove()
	doc.Find("br").AfterHtml("\n")
	doc.Find("p,div,tr,li,h1,h2,h3,h4,h5,h6,table,td,th").AfterHtml("\n")

	return collapseWhitespace(doc.Text())
}

func collapseWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = reSpaces.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	out := strings.Join(lines, "\n")
	out = reBlankLines.ReplaceAllString(out, "\n")
	return strings.TrimSpace(out)
}
