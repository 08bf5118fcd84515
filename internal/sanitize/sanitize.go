// Package sanitize turns free text returned by a model into a base file name
// that is safe on common filesystems.
package sanitize

import "strings"

// MaxLen is the maximum length of a sanitized name, in runes.
const MaxLen = 100

var replacer = strings.NewReplacer(
	"\n", "",
	"\r", "",
	`"`, "",
	"/", "_",
	`\`, "_",
	":", "_",
	"*", "_",
	"?", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// Filename trims raw, drops line breaks and double quotes, replaces characters
// that are illegal in file names with '_' and truncates the result to MaxLen
// runes. It never fails; the result may be empty.
func Filename(raw string) string {
	s := replacer.Replace(strings.TrimSpace(raw))
	n := 0
	for i := range s {
		if n == MaxLen {
			return s[:i]
		}
		n++
	}
	return s
}
