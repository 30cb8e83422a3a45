package gates

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"
)

// Counter derives a warning count from raw tool output. The default
// implementation counts matching lines; structured parsers can replace it
// per check without touching gate logic.
type Counter interface {
	Count(output string) int
}

// PatternCounter counts output lines matching a regular expression.
type PatternCounter struct {
	re *regexp.Regexp
}

// NewPatternCounter compiles pattern into a line counter.
func NewPatternCounter(pattern string) (*PatternCounter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile warning pattern %q: %w", pattern, err)
	}
	return &PatternCounter{re: re}, nil
}

func (c *PatternCounter) Count(output string) int {
	n := 0
	sc := bufio.NewScanner(strings.NewReader(output))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if c.re.MatchString(sc.Text()) {
			n++
		}
	}
	return n
}
