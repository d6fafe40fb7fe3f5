package report

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mackeh/ncwatchdog/internal/disk"
	"github.com/mackeh/ncwatchdog/internal/hypertext"
	"github.com/mackeh/ncwatchdog/internal/logfile"
)

const (
	indent = "   "
	green  = "🟢"
	red    = "🔴"

	DisksHeader = "💾 Disks\n"
	LogsHeader  = "🧾 Logs\n"
)

// Render compiles the report into a message with a Disks section followed
// by a Logs section.
func Render(r *Report) hypertext.Message {
	fragments := diskFragments(r.Disks)
	fragments = append(fragments, logFragments(r.Logs, r.GeneratedAt)...)
	return hypertext.Compile(fragments)
}

func diskFragments(entries []disk.Entry) []hypertext.Fragment {
	fragments := []hypertext.Fragment{hypertext.Bold(DisksHeader)}
	for _, e := range entries {
		var line string
		switch e.Status.State {
		case disk.StateHealthy:
			line = diskLine(green, e)
		case disk.StateBelowThreshold:
			line = diskLine(red, e)
		default:
			line = fmt.Sprintf("%s%s mount point %s not found\n", indent, red, e.Label)
		}
		fragments = append(fragments, hypertext.Text(line))
	}
	return fragments
}

func diskLine(glyph string, e disk.Entry) string {
	v := e.Status.Volume
	return fmt.Sprintf("%s%s %s (%s) %s free\n",
		indent, glyph, v.DisplayName, e.Label, humanize.Bytes(v.AvailableBytes))
}

func logFragments(entries []logfile.Entry, now time.Time) []hypertext.Fragment {
	fragments := []hypertext.Fragment{hypertext.Bold(LogsHeader)}
	for _, e := range entries {
		s := e.Status
		switch s.State {
		case logfile.StateOK:
			fragments = append(fragments, hypertext.Text(fmt.Sprintf("%s%s %s\n", indent, green, e.Label)))
		case logfile.StateErrorsFound:
			fragments = append(fragments,
				hypertext.Text(fmt.Sprintf("%s%s found errors in ", indent, red)),
				hypertext.Bold(e.Label+"\n"))
		case logfile.StateAgeExceeded:
			fragments = append(fragments, hypertext.Text(fmt.Sprintf("%s%s age of %s (%s) exceeds the limit\n",
				indent, red, e.Label, FormatAge(now.Sub(s.ModifiedAt)))))
		case logfile.StateNotFound:
			fragments = append(fragments, hypertext.Text(fmt.Sprintf("%s%s %s not found\n", indent, red, e.Label)))
		case logfile.StateNoLogFilesConfigured:
			fragments = append(fragments, hypertext.Text(fmt.Sprintf("%s%s no log files configured\n", indent, red)))
		default:
			fragments = append(fragments, hypertext.Text(fmt.Sprintf("%s%s %s: %s\n", indent, red, e.Label, s.Detail)))
		}
	}
	return fragments
}

// FormatAge renders d in its largest nonzero unit of days, hours or
// minutes, rounded down.
func FormatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	if days := secs / (60 * 60 * 24); days != 0 {
		return fmt.Sprintf("%d days", days)
	}
	if hours := secs / (60 * 60); hours != 0 {
		return fmt.Sprintf("%d hours", hours)
	}
	return fmt.Sprintf("%d minutes", secs/60)
}
