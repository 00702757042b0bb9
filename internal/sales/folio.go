package sales

import "fmt"

// FormatFolio renders the human-facing receipt number for a sequence value.
// Folios are zero-padded to four digits but keep growing past 9999.
func FormatFolio(n int64) string {
	return fmt.Sprintf("FACT-%04d", n)
}
