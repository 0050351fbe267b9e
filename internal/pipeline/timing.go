package pipeline

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tara-vision/codeforge/internal/artifact"
)

// FormatElapsed renders d as "12.34s" under a minute and "2m 5s" otherwise
func FormatElapsed(d time.Duration) string {
	secs := d.Seconds()
	// branch on the value as printed so 59.996s never shows as "60.00s"
	if hundredths := math.Round(secs * 100); hundredths < 6000 {
		return fmt.Sprintf("%.2fs", hundredths/100)
	}
	total := int(math.Round(secs))
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}

func successHeader(project, scope string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Script %s generated successfully for project \"%s\"", artifact.Filename, project)
	if scope != "" {
		fmt.Fprintf(&sb, " (Scope: %s)", scope)
	}
	sb.WriteString(".")
	return sb.String()
}

// twoStepMessage reports both stage times and the total
func twoStepMessage(project, scope string, first, second, total time.Duration) string {
	return successHeader(project, scope) +
		"\n\n⏱️ Processing times:" +
		"\n- First prompt: " + FormatElapsed(first) +
		"\n- Second prompt: " + FormatElapsed(second) +
		"\n- Total: " + FormatElapsed(total)
}

// singleStepMessage reports one processing time
func singleStepMessage(project, scope string, elapsed time.Duration) string {
	return successHeader(project, scope) + "\n\n⏱️ Processing time: " + FormatElapsed(elapsed)
}
