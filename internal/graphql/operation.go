package gql

import "unicode"

// hasMutation reports whether doc declares a mutation operation at top level.
// Comments, string literals (including escapes and block strings) and
// selection sets are skipped.
func hasMutation(doc string) bool {
	rs := []rune(doc)
	depth := 0
	word := make([]rune, 0, 16)

	isMutationWord := func() bool {
		ok := depth == 0 && string(word) == "mutation"
		word = word[:0]
		return ok
	}

	for i := 0; i < len(rs); i++ {
		c := rs[i]
		if c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c) {
			word = append(word, c)
			continue
		}
		if isMutationWord() {
			return true
		}
		switch c {
		case '#':
			for i < len(rs) && rs[i] != '\n' && rs[i] != '\r' {
				i++
			}
		case '"':
			i = skipString(rs, i)
		case '{', '(':
			depth++
		case '}', ')':
			depth--
		}
	}
	return isMutationWord()
}

// skipString returns the index of the closing quote of the string starting at i.
func skipString(rs []rune, i int) int {
	if i+2 < len(rs) && rs[i+1] == '"' && rs[i+2] == '"' {
		// block string: only \""" escapes the terminator
		for j := i + 3; j < len(rs); j++ {
			if rs[j] == '\\' && j+3 < len(rs) && rs[j+1] == '"' && rs[j+2] == '"' && rs[j+3] == '"' {
				j += 3
				continue
			}
			if rs[j] == '"' && j+2 < len(rs) && rs[j+1] == '"' && rs[j+2] == '"' {
				return j + 2
			}
		}
		return len(rs)
	}
	for j := i + 1; j < len(rs); j++ {
		switch rs[j] {
		case '\\':
			j++
		case '"', '\n':
			return j
		}
	}
	return len(rs)
}
