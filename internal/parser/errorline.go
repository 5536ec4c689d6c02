package parser

import (
	"regexp"
	"strconv"
)

// errorLinePattern matches "<scene> line <n>: <message>".
var errorLinePattern = regexp.MustCompile(`(\S+) line (\d+): (.*)`)

// ErrorLocation is a script error reported by quicktest or randomtest.
type ErrorLocation struct {
	// Scene is the scene file name as printed, case preserved.
	Scene string

	// Line is the 1-based line number within the scene.
	Line uint64

	// Message is the rest of the line, untrimmed.
	Message string
}

// ParseErrorLine extracts an error location from the last line a failed run
// printed. Returns false if the line carries no location.
//
// Only one line is examined. A diagnostic that spans several lines, or one
// split across output chunks, is not recovered.
func ParseErrorLine(line string) (ErrorLocation, bool) {
	m := errorLinePattern.FindStringSubmatch(line)
	if m == nil {
		return ErrorLocation{}, false
	}
	n, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return ErrorLocation{}, false
	}
	return ErrorLocation{Scene: m[1], Line: n, Message: m[3]}, true
}
