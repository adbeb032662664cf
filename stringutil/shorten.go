package stringutil

const ShortenLogLength = 16

// ShortenLog keeps the head and tail of a long hash for log lines
func ShortenLog(hash string) string {
	return Shorten(hash, ShortenLogLength)
}

// Shorten returns s unchanged when it fits in keep characters, otherwise
// keep/2 leading and trailing characters joined by "..."
func Shorten(s string, keep int) string {
	if keep <= 0 || len(s) <= keep {
		return s
	}
	half := keep / 2
	return s[:half] + "..." + s[len(s)-half:]
}
