package managedblock

import "strings"

// Markers delimit a block of generated lines inside a file otherwise owned
// by someone else.
type Markers struct {
	Begin string
	End   string
}

func (m Markers) find(content string) (int, int, bool) {
	start := strings.Index(content, m.Begin)
	if start < 0 {
		return 0, 0, false
	}
	end := strings.Index(content[start:], m.End)
	if end < 0 {
		return 0, 0, false
	}
	end = start + end + len(m.End)
	if end < len(content) && content[end] == '\n' {
		end++
	}
	return start, end, true
}

// Replace swaps the existing block for lines, or appends a new block.
func Replace(content string, m Markers, lines []string) string {
	block := m.Begin + "\n"
	for _, line := range lines {
		block += line + "\n"
	}
	block += m.End + "\n"

	if start, end, ok := m.find(content); ok {
		return content[:start] + block + content[end:]
	}
	if strings.TrimSpace(content) == "" {
		return block
	}
	if strings.HasSuffix(content, "\n") {
		return content + "\n" + block
	}
	return content + "\n\n" + block
}

// Remove drops the block and the blank separator line Replace added.
func Remove(content string, m Markers) string {
	start, end, ok := m.find(content)
	if !ok {
		return content
	}
	head := content[:start]
	tail := content[end:]
	if tail == "" && strings.HasSuffix(head, "\n\n") {
		head = strings.TrimSuffix(head, "\n")
	}
	return head + tail
}
