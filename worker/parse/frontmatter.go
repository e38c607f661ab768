package parse

import (
	"bufio"
	"bytes"
	"strings"
)

// fenceDelimiter marks the beginning and end of the YAML frontmatter block.
const fenceDelimiter = "---"

// splitFrontmatter separates a leading "---"-fenced YAML block from the
// remaining markdown body. For input without a leading fence it returns the
// whole input as the body with hasFrontmatter false; Parse then rejects such
// a file, since a worker definition requires a name.
func splitFrontmatter(data []byte) (frontmatter, body []byte, hasFrontmatter bool, err error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !scanner.Scan() {
		return nil, nil, false, nil
	}
	first := strings.TrimRight(scanner.Text(), "\r")
	if strings.TrimSpace(first) != fenceDelimiter {
		return nil, data, false, nil
	}

	var fmLines []string
	closed := false
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == fenceDelimiter {
			closed = true
			break
		}
		fmLines = append(fmLines, line)
	}
	if !closed {
		return nil, nil, false, &InvalidFrontmatterError{Reason: "missing closing fence"}
	}

	var bodyLines []string
	for scanner.Scan() {
		bodyLines = append(bodyLines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, false, &InvalidFrontmatterError{Reason: err.Error()}
	}

	return []byte(strings.Join(fmLines, "\n")), []byte(strings.Join(bodyLines, "\n")), true, nil
}
