package domain

import "strings"

var filenameCleaner = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	"\"", "",
	"\r", "",
	"\n", "",
	"\x00", "",
)

// SanitizeFilename makes name usable both as a zip entry prefix and inside a
// quoted Content-Disposition filename. Path separators become hyphens; quotes,
// line breaks and NUL bytes are dropped.
func SanitizeFilename(name string) string {
	return strings.TrimSpace(filenameCleaner.Replace(strings.TrimSpace(name)))
}
