package vanna

import (
	"regexp"
	"strings"
)

var sqlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)\bWITH\b .*?;`),
	regexp.MustCompile(`(?s)SELECT.*?;`),
	regexp.MustCompile("(?s)```sql\n(.*)```"),
	regexp.MustCompile("(?s)```(.*)```"),
}

// ExtractSQL pulls the statement out of a model response. The last match of
// the first matching pattern wins: a WITH statement, a SELECT statement, a
// ```sql fence, any fence. Without a match the trimmed response is returned.
func ExtractSQL(response string) string {
	for _, re := range sqlPatterns {
		matches := re.FindAllStringSubmatch(response, -1)
		if len(matches) == 0 {
			continue
		}
		last := matches[len(matches)-1]
		if len(last) > 1 {
			return strings.TrimSpace(last[1])
		}
		return strings.TrimSpace(last[0])
	}
	return strings.TrimSpace(response)
}
