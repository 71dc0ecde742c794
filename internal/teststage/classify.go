// Package teststage implements the three-tier test harness from spec
// §4.5: classify the generated scraper, run it against a mock page or a
// live browser, and decide success/failure within a bounded time.
package teststage

import "regexp"

// Classification is the pure-string-inspection verdict on generated code.
type Classification string

const (
	ClassBrowserDependent Classification = "browser-dependent"
	ClassProgrammatic     Classification = "programmatic"
)

var (
	browserIndicator = regexp.MustCompile(`page\.goto\(|page\.extract\(|querySelectorAll|\.click\(|waitFor\w*\(`)

	weeksArray    = regexp.MustCompile(`const\s+weeks\s*=\s*\[|weeks\s*:\s*(\[.*?\]|Array<[^>]*>)\s*=\s*\[`)
	sessionsPush  = regexp.MustCompile(`sessions\.push\(`)
	weeksForEach  = regexp.MustCompile(`weeks\.forEach\(`)
	weeksForLoop  = regexp.MustCompile(`for\s*\([^)]*weeks\.length`)
	generatorFunc = regexp.MustCompile(`function\s+generateWeeklySessions|generateWeeklySessions\s*=`)
	anyLoop       = regexp.MustCompile(`\bfor\s*\(|\bwhile\s*\(`)
)

// Classify applies spec §4.5's classification rules, pure string
// inspection with no parsing.
func Classify(code string) Classification {
	if browserIndicator.MatchString(code) {
		return ClassBrowserDependent
	}
	if weeksArray.MatchString(code) && sessionsPush.MatchString(code) &&
		(weeksForEach.MatchString(code) || weeksForLoop.MatchString(code)) {
		return ClassProgrammatic
	}
	if generatorFunc.MatchString(code) && sessionsPush.MatchString(code) {
		return ClassProgrammatic
	}
	if anyLoop.MatchString(code) && sessionsPush.MatchString(code) {
		return ClassProgrammatic
	}
	return ClassBrowserDependent
}
