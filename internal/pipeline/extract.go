package pipeline

import "strings"

const fence = "```"

// shellTags are the info strings whose block is taken as the script; a bare fence counts too
var shellTags = map[string]bool{"": true, "bash": true, "sh": true, "shell": true, "zsh": true}

// fenceTag reports whether line is a fence line and returns its info string.
// The info string must be a single word, so "```not a fence" is ordinary text.
func fenceTag(line string) (string, bool) {
	line = strings.TrimRight(line, " \t\r")
	if !strings.HasPrefix(line, fence) {
		return "", false
	}
	tag := line[len(fence):]
	if strings.ContainsAny(tag, " \t`") {
		return "", false
	}
	return strings.ToLower(tag), true
}

// ExtractCodeBlock returns the interior of the first shell or untagged fenced block in raw.
// Fences only count on their own line. Blocks tagged with another language are skipped whole,
// and tagged fences inside the script (heredocs writing markdown) nest until their own bare
// close. When no complete block exists, raw is returned unchanged.
func ExtractCodeBlock(raw string) string {
	lines := strings.Split(raw, "\n")

	for i := 0; i < len(lines); i++ {
		tag, ok := fenceTag(lines[i])
		if !ok {
			continue
		}
		if !shellTags[tag] {
			end := closingLine(lines, i+1)
			if end < 0 {
				return raw
			}
			i = end
			continue
		}

		end := closingLine(lines, i+1)
		if end < 0 {
			return raw
		}
		return strings.Join(lines[i+1:end], "\n")
	}
	return raw
}

// closingLine finds the bare fence closing a block whose body starts at from, or -1
func closingLine(lines []string, from int) int {
	depth := 0
	for j := from; j < len(lines); j++ {
		tag, ok := fenceTag(lines[j])
		switch {
		case !ok:
		case tag != "":
			depth++
		case depth > 0:
			depth--
		default:
			return j
		}
	}
	return -1
}
