package inference

import (
	"regexp"

	"github.com/Sentinel-Gate/intentresolver/internal/domain/action"
)

// DefaultConfirmWindow is how many trailing conversation turns are searched
// for a destructive imperative.
const DefaultConfirmWindow = 2

var imperativePattern = regexp.MustCompile(`(?i)\b(delete|remove|cancel|drop|eliminate|hapus|batalkan)\b`)

// ConfirmedByHistory reports whether one of the last window turns contains
// a strong destructive imperative such as "delete" or "hapus". A window
// below one uses DefaultConfirmWindow.
func ConfirmedByHistory(turns []action.Turn, window int) bool {
	if window < 1 {
		window = DefaultConfirmWindow
	}
	start := max(len(turns)-window, 0)
	for _, t := range turns[start:] {
		if imperativePattern.MatchString(t.Content) {
			return true
		}
	}
	return false
}
