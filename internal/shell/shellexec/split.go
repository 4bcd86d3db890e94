package shellexec

import "fmt"

// Split breaks a command string into argv elements. Single and double
// quotes group words; quote characters themselves are stripped. This is the
// subset of shell word splitting the backend commands need (the patch
// commands carry quoted JSON payloads), without invoking a shell.
func Split(command string) ([]string, error) {
	var (
		argv    []string
		current []rune
		quote   rune
		inWord  bool
	)

	for _, r := range command {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current = append(current, r)
			}
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case r == ' ' || r == '\t' || r == '\n':
			if inWord {
				argv = append(argv, string(current))
				current = current[:0]
				inWord = false
			}
		default:
			current = append(current, r)
			inWord = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote in %q", quote, command)
	}
	if inWord {
		argv = append(argv, string(current))
	}
	return argv, nil
}
