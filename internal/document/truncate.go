package document

// TruncationMarker separates the kept head and tail of a truncated document
const TruncationMarker = "\n\n[...middle truncated...]\n\n"

// DefaultMaxChars is the default truncation budget in characters
const DefaultMaxChars = 12000

// Truncate keeps the first and last budget/2 characters of text when it is
// longer than budget, joined by TruncationMarker. This assumes the useful
// content of a document sits near its start and end; the middle is dropped.
// A non-positive budget disables truncation.
func Truncate(text string, budget int) string {
	if budget <= 0 {
		return text
	}

	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}

	half := budget / 2
	return string(runes[:half]) + TruncationMarker + string(runes[len(runes)-half:])
}
