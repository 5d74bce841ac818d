package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
)

// FormatNumber formats an integer with comma separators.
func FormatNumber(n int) string {
	s := fmt.Sprintf("%d", n)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// FormatMillis renders a duration as milliseconds with two decimals.
func FormatMillis(d time.Duration) string {
	return fmt.Sprintf("%.2f ms", float64(d)/float64(time.Millisecond))
}

var (
	headerColor = color.New(color.Bold)
	failColor   = color.New(color.FgRed)
	okColor     = color.New(color.FgGreen)
)

// SectionHeader writes a bold boxed title, the house style for benchmark
// output sections. Honors color.NoColor.
func SectionHeader(w io.Writer, title string) {
	rule := strings.Repeat("═", 59)
	_, _ = headerColor.Fprintln(w, rule)
	_, _ = headerColor.Fprintln(w, title)
	_, _ = headerColor.Fprintln(w, rule)
}

// FailureLine writes one red line describing a failed configuration.
func FailureLine(w io.Writer, name string, err error) {
	_, _ = failColor.Fprintf(w, "  * %s: %v\n", name, err)
}

// SummaryLine writes a green completion summary.
func SummaryLine(w io.Writer, completed, total int) {
	_, _ = okColor.Fprintf(w, "Completed %d/%d configurations\n", completed, total)
}
