package exportsync

// LinkExtractor pulls hyperlinks out of HTML.
type LinkExtractor interface {
	// ExtractLinks returns the href of every anchor in document order,
	// resolved against baseURL. Malformed anchors are skipped.
	ExtractLinks(html string, baseURL string) ([]string, error)
}
