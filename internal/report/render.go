package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent  = lipgloss.Color("#20B9B4")
	colorSuccess = lipgloss.Color("#2CD7C7")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#2C4A54")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)
	okStyle    = lipgloss.NewStyle().Foreground(colorSuccess)
	failStyle  = lipgloss.NewStyle().Foreground(colorError)
	warnStyle  = lipgloss.NewStyle().Foreground(colorWarning)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

// Render writes the final results panel for a terminal. With styled false
// the output is plain text suitable for pipes and logs.
func Render(w io.Writer, rep Report, styled bool) error {
	yes := func(ok bool) string {
		switch {
		case ok && styled:
			return okStyle.Render("✓ YES")
		case ok:
			return "YES"
		case styled:
			return failStyle.Render("✗ NO")
		default:
			return "NO"
		}
	}

	level := rep.ValidationLevel
	if styled {
		switch level {
		case "EXCEPTIONAL", "STRONG", "GOOD":
			level = okStyle.Render(level)
		case "MODERATE":
			level = warnStyle.Render(level)
		default:
			level = failStyle.Render(level)
		}
	}

	lines := []string{
		fmt.Sprintf("Score:             %.3f", rep.Score),
		fmt.Sprintf("Validation Level:  %s", level),
		fmt.Sprintf("Overall Validated: %s", yes(rep.OverallValidated)),
		fmt.Sprintf("Meta-Validated:    %s", yes(rep.MetaValidated)),
	}
	if cv := rep.CrossValidation; cv != nil {
		lines = append(lines, fmt.Sprintf("Cross-Validation:  %.3f ± %.3f over %d folds", cv.MeanScore, cv.StdScore, cv.Folds))
	}
	body := strings.Join(lines, "\n")

	if !styled {
		rule := strings.Repeat("=", 80)
		_, err := fmt.Fprintf(w, "%s\nFINAL VALIDATION RESULTS\n%s\n%s\n%s\n", rule, rule, body, rule)
		return err
	}

	panel := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("FINAL VALIDATION RESULTS"),
		body,
		mutedStyle.Render(rep.ReportID),
	)
	_, err := fmt.Fprintln(w, boxStyle.Render(panel))
	return err
}
