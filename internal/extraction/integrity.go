package extraction

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/inferloop/datasynth/internal/privacy"
	"github.com/inferloop/datasynth/pkg/models"
)

// IntegrityExtractor detects uniqueness and simple check constraints.
// Constraint structure is not sensitive aggregate data, so this
// extractor spends no privacy budget.
type IntegrityExtractor struct{}

func (e *IntegrityExtractor) Name() string { return "integrity" }

func (e *IntegrityExtractor) Extract(table *Table, config *Config, engine *privacy.Engine) (Component, error) {
	fp := models.NewIntegrityFingerprint()

	for i, column := range table.Columns {
		values := table.ColumnValues(i)

		distinct := make(map[string]uint64)
		nonNull := 0
		for _, v := range values {
			if v == "" {
				continue
			}
			nonNull++
			distinct[v]++
		}
		if nonNull == 0 {
			continue
		}

		if len(distinct) == nonNull {
			fp.UniqueConstraints = append(fp.UniqueConstraints, models.UniqueConstraint{
				Table:       table.Name,
				Columns:     []string{column},
				IsSatisfied: true,
			})
		} else if strings.HasSuffix(strings.ToLower(column), "_id") {
			// Near-unique identifier columns still get recorded, with
			// the duplicate group count as evidence.
			var dups uint64
			for _, c := range distinct {
				if c > 1 {
					dups++
				}
			}
			if float64(len(distinct))/float64(nonNull) > 0.95 {
				fp.UniqueConstraints = append(fp.UniqueConstraints, models.UniqueConstraint{
					Table:           table.Name,
					Columns:         []string{column},
					IsSatisfied:     false,
					DuplicateGroups: dups,
				})
			}
		}

		if check := detectNonNegative(table.Name, column, values); check != nil {
			fp.CheckConstraints = append(fp.CheckConstraints, *check)
		}
	}

	return integrityComponent{fp: fp}, nil
}

// detectNonNegative records a non-negativity check for numeric columns
// that are overwhelmingly non-negative, with the observed satisfaction
// rate.
func detectNonNegative(tableName, column string, values []string) *models.CheckConstraint {
	var numeric, nonNegative int
	for _, v := range values {
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		numeric++
		if f >= 0 {
			nonNegative++
		}
	}
	if numeric == 0 {
		return nil
	}
	rate := float64(nonNegative) / float64(numeric)
	if rate < 0.99 {
		return nil
	}
	return &models.CheckConstraint{
		Table:            tableName,
		Name:             fmt.Sprintf("%s_non_negative", column),
		Expression:       fmt.Sprintf("%s >= 0", column),
		Columns:          []string{column},
		SatisfactionRate: rate,
	}
}
