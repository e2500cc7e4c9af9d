package eval

// likeMatch evaluates a SQL LIKE pattern (`%` any run, `_` one rune,
// `\` escapes) against text. Folding is ASCII-only, matching sqlite's
// LIKE: non-ASCII runes compare exactly.
func likeMatch(pattern, text string) bool {
	return likeRunes([]rune(asciiLower(pattern)), []rune(asciiLower(text)))
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func likeRunes(p, s []rune) bool {
	// Backtracking matcher: remember the position after the most recent
	// '%' and retry from there on mismatch.
	var (
		pi, si       int
		starP, starS = -1, 0
	)

	for si < len(s) {
		if pi < len(p) {
			switch p[pi] {
			case '%':
				starP = pi + 1
				starS = si
				pi++
				continue
			case '_':
				pi++
				si++
				continue
			case '\\':
				if pi+1 < len(p) && p[pi+1] == s[si] {
					pi += 2
					si++
					continue
				}
			default:
				if p[pi] == s[si] {
					pi++
					si++
					continue
				}
			}
		}

		if starP < 0 {
			return false
		}
		starS++
		pi = starP
		si = starS
	}

	for pi < len(p) && p[pi] == '%' {
		pi++
	}
	return pi == len(p)
}
