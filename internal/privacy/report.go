package privacy

import (
	"fmt"
	"strings"

	"github.com/inferloop/datasynth/pkg/models"
)

// GenerateReport renders a human-readable summary of the privacy audit.
func GenerateReport(audit *models.PrivacyAudit) string {
	var b strings.Builder

	b.WriteString("=== Privacy Audit Report ===\n\n")

	fmt.Fprintf(&b, "Epsilon Budget: %.3f\n", audit.EpsilonBudget)
	pct := 0.0
	if audit.EpsilonBudget > 0 {
		pct = audit.TotalEpsilonSpent / audit.EpsilonBudget * 100
	}
	fmt.Fprintf(&b, "Epsilon Spent:  %.3f (%.1f%%)\n", audit.TotalEpsilonSpent, pct)
	fmt.Fprintf(&b, "K-Anonymity:    %d\n", audit.KAnonymity)
	fmt.Fprintf(&b, "Total Actions:  %d\n\n", len(audit.Actions))

	b.WriteString("Summary:\n")
	fmt.Fprintf(&b, "  - Noise additions:   %d\n", audit.Summary.NoiseAdditions)
	fmt.Fprintf(&b, "  - Suppressions:      %d\n", audit.Summary.Suppressions)
	fmt.Fprintf(&b, "  - Generalizations:   %d\n", audit.Summary.Generalizations)
	fmt.Fprintf(&b, "  - Winsorizations:    %d\n", audit.Summary.Winsorizations)
	fmt.Fprintf(&b, "  - Binnings:          %d\n", audit.Summary.Binnings)
	fmt.Fprintf(&b, "  - Roundings:         %d\n", audit.Summary.Roundings)

	if len(audit.Warnings) > 0 {
		fmt.Fprintf(&b, "\nWarnings (%d):\n", len(audit.Warnings))
		for _, w := range audit.Warnings {
			fmt.Fprintf(&b, "  [%s] %s\n", warningLabel(w.Level), w.Message)
		}
	}

	return b.String()
}

func warningLabel(level models.WarningLevel) string {
	switch level {
	case models.WarningInfo:
		return "INFO"
	case models.WarningCaution:
		return "WARN"
	case models.WarningSerious:
		return "SERIOUS"
	case models.WarningCritical:
		return "CRITICAL"
	}
	return strings.ToUpper(string(level))
}

// CheckAuditIssues scans a finished audit for conditions worth surfacing
// to the operator.
func CheckAuditIssues(audit *models.PrivacyAudit) []string {
	var issues []string

	if audit.TotalEpsilonSpent > audit.EpsilonBudget {
		issues = append(issues, fmt.Sprintf(
			"Epsilon budget exceeded: spent %.3f, budget %.3f",
			audit.TotalEpsilonSpent, audit.EpsilonBudget))
	}

	if total := audit.Summary.TotalActions(); total > 0 {
		rate := float64(audit.Summary.Suppressions) / float64(total)
		if rate > 0.5 {
			issues = append(issues, fmt.Sprintf(
				"High suppression rate: %.1f%% of actions were suppressions", rate*100))
		}
	}

	var critical int
	for _, w := range audit.Warnings {
		if w.Level == models.WarningCritical {
			critical++
		}
	}
	if critical > 0 {
		issues = append(issues, fmt.Sprintf("%d critical warnings present", critical))
	}

	return issues
}
