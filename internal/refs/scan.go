package refs

// Scan returns the distinct tokens of every valid reference group in text,
// in order of first appearance.
func Scan(text string) []Token {
	var out []Token
	seen := make(map[Token]bool)
	for _, m := range bracketRe.FindAllStringSubmatch(text, -1) {
		tokens, ok := parseGroup(m[1])
		if !ok {
			continue
		}
		for _, tok := range tokens {
			if seen[tok] {
				continue
			}
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}
