package draft

type span struct {
	start, end int
}

// objectCandidates returns every top-level balanced {...} substring of s in
// order of appearance. Braces inside string literals are ignored and escape
// sequences inside strings are honored. Iterating bytes is safe for the
// ASCII delimiters because UTF-8 never reuses ASCII bytes inside multi-byte
// sequences. An object left open at the end of input is abandoned and the
// balanced objects directly inside it are returned instead. The scan is a
// single pass regardless of how many objects are left open.
func objectCandidates(s string) []string {
	var (
		candidates []string
		// openers holds the positions of unclosed '{', innermost last.
		openers []int
		// pending holds closed objects whose parent is still open.
		pending  []span
		inString bool
		escape   bool
	)

	for i := 0; i < len(s); i++ {
		b := s[i]

		if escape {
			escape = false
			continue
		}
		if inString {
			switch b {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			// Quotes only open a string literal inside an object; stray
			// apostrophes and quotes in prose must not swallow the next brace.
			if len(openers) > 0 {
				inString = true
			}
		case '{':
			openers = append(openers, i)
		case '}':
			if len(openers) == 0 {
				continue
			}
			start := openers[len(openers)-1]
			openers = openers[:len(openers)-1]

			// Children of this object are now covered by it.
			for len(pending) > 0 && pending[len(pending)-1].start > start {
				pending = pending[:len(pending)-1]
			}
			if len(openers) == 0 {
				candidates = append(candidates, s[start:i+1])
			} else {
				pending = append(pending, span{start: start, end: i + 1})
			}
		}
	}

	for _, p := range pending {
		candidates = append(candidates, s[p.start:p.end])
	}
	return candidates
}
