package agent

import (
	"os"
	"regexp"
	"strings"
)

// jsonEscapedFence matches a JSON-escaped fenced typescript block inside
// a raw assistant "text" field, e.g. `"text": "...` ```typescript\n...```"`.
var jsonEscapedFence = regexp.MustCompile(`"text":\s*"(?:[^"\\]|\\.)*?\\` + "`\\`\\`" + `(?:typescript|ts)\\n((?:[^"\\]|\\.)*?)\\` + "`\\`\\`")

// rawFence matches a literal fenced typescript block appearing directly
// in stdout (not JSON-escaped).
var rawFence = regexp.MustCompile("(?s)```(?:typescript|ts)\\n(.*?)```")

// ExtractCode implements the code-extraction order from spec §4.4,
// first hit wins:
//  1. the designated output file, if it has > 50 bytes of non-whitespace
//  2. a JSON-escaped fenced typescript block in stdout
//  3. a raw fenced typescript block in stdout
func ExtractCode(outputFile, stdout string) (string, bool) {
	if outputFile != "" {
		if data, err := os.ReadFile(outputFile); err == nil {
			if len(strings.TrimSpace(string(data))) > 50 {
				return string(data), true
			}
		}
	}

	if m := jsonEscapedFence.FindStringSubmatch(stdout); m != nil {
		return unescapeJSON(m[1]), true
	}

	if m := rawFence.FindStringSubmatch(stdout); m != nil {
		return strings.TrimSpace(m[1]), true
	}

	return "", false
}

func unescapeJSON(s string) string {
	replacer := strings.NewReplacer(
		`\n`, "\n",
		`\t`, "\t",
		`\"`, `"`,
		`\\`, `\`,
	)
	return strings.TrimSpace(replacer.Replace(s))
}
