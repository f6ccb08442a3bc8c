package memo

import "regexp"

var (
	markdownLinkPattern = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	markdownBoldPattern = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	orderURLPattern     = regexp.MustCompile(`https://www\.amazon\.com/gp/your-account/order-details\?orderID=[\w-]+`)
)

// StripMarkdown removes link and bold formatting, leaving the text.
func StripMarkdown(s string) string {
	s = markdownLinkPattern.ReplaceAllString(s, "$1")
	return markdownBoldPattern.ReplaceAllString(s, "$1")
}

// ExtractOrderURL pulls the order-details URL out of a memo body, whether
// it appears as a markdown link target or a plain URL. Returns "" when no
// URL is present.
func ExtractOrderURL(body string) string {
	return orderURLPattern.FindString(body)
}
