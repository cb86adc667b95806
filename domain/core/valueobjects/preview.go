package valueobjects

// MaxPreviewLength is the number of characters of content kept in a preview
const MaxPreviewLength = 100

const previewEllipsis = "..."

// Preview truncates content to MaxPreviewLength characters, appending "..."
// when anything was cut. Truncation counts runes, never splitting a character.
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) <= MaxPreviewLength {
		return content
	}
	return string(runes[:MaxPreviewLength]) + previewEllipsis
}
