package context

import "fmt"

// Stats summarises what a serialization pass rendered
type Stats struct {
	Files   int   `json:"files"`
	Dirs    int   `json:"dirs"`
	Bytes   int64 `json:"bytes"`
	Skipped int   `json:"skipped"` // entries dropped by the exclusion policy
	Errors  int   `json:"errors"`  // entries rendered as inline error text
}

// Add accumulates other into s
func (s *Stats) Add(other Stats) {
	s.Files += other.Files
	s.Dirs += other.Dirs
	s.Bytes += other.Bytes
	s.Skipped += other.Skipped
	s.Errors += other.Errors
}

// String returns a one-line human summary
func (s Stats) String() string {
	return fmt.Sprintf("%d files, %d directories, %s, %d skipped, %d errors",
		s.Files, s.Dirs, FormatBytes(s.Bytes), s.Skipped, s.Errors)
}

// FormatBytes renders a byte count with a binary unit suffix
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
