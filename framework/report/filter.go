package report

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Filter is a function that can determine whether to run a specific test or not.
type Filter func(testName string) bool

type NameFilters struct {
	MustMatch    NamePatternList
	MustNotMatch NamePatternList
}

func (r NameFilters) Match(testName string) bool {
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyMatch(testName)) &&
		!r.MustNotMatch.AnyMatch(testName)
}

func (r NameFilters) IsDefined() bool {
	return r.MustMatch.IsDefined() || r.MustNotMatch.IsDefined()
}

type NamePatternList []*regexp.Regexp

func (l NamePatternList) String() string {
	ss := make([]string, 0, len(l))
	for _, p := range l {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set is called by the command line parser
func (l *NamePatternList) Set(value string) error {
	rx, err := regexp.Compile(value)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	*l = append(*l, rx)
	return nil
}

// IsCumulative tells the command line parser that the flag can be repeated.
func (l *NamePatternList) IsCumulative() bool { return true }

func (l NamePatternList) IsDefined() bool {
	return len(l) != 0
}

func (l NamePatternList) AnyMatch(testName string) bool {
	for _, p := range l {
		if p.MatchString(testName) {
			return true
		}
	}
	return false
}

func PrintFilterDescription(out io.Writer, filters NameFilters) {
	if !filters.IsDefined() {
		return
	}
	fmt.Fprintln(out, "Some tests will be skipped based on the filter criteria for this run:")
	if filters.MustMatch.IsDefined() {
		fmt.Fprintf(out, "  skip any not matching %s\n", filters.MustMatch)
	}
	if filters.MustNotMatch.IsDefined() {
		fmt.Fprintf(out, "  skip any matching %s\n", filters.MustNotMatch)
	}
	fmt.Fprintln(out)
}
