package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inferloop/datasynth/pkg/models"
)

func buildAudit() *models.PrivacyAudit {
	audit := models.NewPrivacyAudit(1.0, 5)
	audit.RecordAction(models.NewPrivacyAction(
		models.ActionLaplaceNoise, "ledger.amount.mean", "Added Laplace noise",
		"differential privacy").WithEpsilon(0.01))
	audit.RecordAction(models.NewPrivacyAction(
		models.ActionWinsorization, "ledger.amount", "Clipped outliers",
		"sensitivity bounding"))
	audit.RecordAction(models.NewPrivacyAction(
		models.ActionSuppression, "ledger.status", "Folded rare categories",
		"k-anonymity"))
	return audit
}

func TestGenerateReport(t *testing.T) {
	audit := buildAudit()
	audit.AddWarning(models.NewPrivacyWarning(models.WarningCaution, "low sample size"))

	report := GenerateReport(audit)

	assert.Contains(t, report, "=== Privacy Audit Report ===")
	assert.Contains(t, report, "Epsilon Budget: 1.000")
	assert.Contains(t, report, "Epsilon Spent:  0.010 (1.0%)")
	assert.Contains(t, report, "K-Anonymity:    5")
	assert.Contains(t, report, "Total Actions:  3")
	assert.Contains(t, report, "Noise additions:   1")
	assert.Contains(t, report, "Suppressions:      1")
	assert.Contains(t, report, "[WARN] low sample size")
}

func TestGenerateReportNoWarnings(t *testing.T) {
	report := GenerateReport(buildAudit())
	assert.NotContains(t, report, "Warnings")
}

func TestCheckAuditIssues(t *testing.T) {
	audit := buildAudit()
	assert.Empty(t, CheckAuditIssues(audit))

	audit.TotalEpsilonSpent = 2.0
	audit.AddWarning(models.NewPrivacyWarning(models.WarningCritical, "budget overrun"))

	issues := CheckAuditIssues(audit)
	assert.Len(t, issues, 2)
	assert.Contains(t, issues[0], "Epsilon budget exceeded")
	assert.Contains(t, issues[1], "critical warnings")
}

func TestCheckAuditIssuesSuppressionRate(t *testing.T) {
	audit := models.NewPrivacyAudit(1.0, 5)
	for i := 0; i < 3; i++ {
		audit.RecordAction(models.NewPrivacyAction(
			models.ActionSuppression, "t.c", "Folded rare categories", "k-anonymity"))
	}
	audit.RecordAction(models.NewPrivacyAction(
		models.ActionLaplaceNoise, "t.c.mean", "Added Laplace noise",
		"differential privacy").WithEpsilon(0.01))

	issues := CheckAuditIssues(audit)
	assert.Len(t, issues, 1)
	assert.Contains(t, issues[0], "High suppression rate")
}
