package variance

import (
	"sort"

	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ActualLine is one variance-bearing transaction: a movement for which
// both standard and actual figures are known. The application layer maps
// ledger entries into these lines.
type ActualLine struct {
	MaterialID       uuid.UUID
	PlantID          uuid.UUID
	Period           valueobject.FiscalPeriod
	Category         VarianceCategory
	StandardPrice    decimal.Decimal
	ActualPrice      decimal.Decimal
	StandardQuantity decimal.Decimal
	ActualQuantity   decimal.Decimal
	SourceRef        string
}

// TotalDeviation is actual cost minus standard cost for this line
func (l ActualLine) TotalDeviation() decimal.Decimal {
	actual := l.ActualPrice.Mul(l.ActualQuantity)
	standard := l.StandardPrice.Mul(l.StandardQuantity)
	return actual.Sub(standard).Round(valueobject.MoneyScale)
}

// Analyzer splits actual-vs-standard deviations into classified variance
// records. The split is exact: price variance plus quantity variance
// reconciles to the line's total deviation.
type Analyzer struct{}

// NewAnalyzer creates a new variance analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze produces variance records for one line. A price variance is
// always produced; a quantity variance only when standard and actual
// quantities differ.
func (a *Analyzer) Analyze(line ActualLine) ([]*CostVariance, error) {
	records := make([]*CostVariance, 0, 2)

	price, err := NewPriceVariance(
		line.MaterialID, line.PlantID, line.Period, line.Category,
		line.StandardPrice, line.ActualPrice, line.ActualQuantity, line.SourceRef,
	)
	if err != nil {
		return nil, err
	}
	records = append(records, price)

	if !line.ActualQuantity.Equal(line.StandardQuantity) {
		quantity, err := NewQuantityVariance(
			line.MaterialID, line.PlantID, line.Period, line.Category,
			line.StandardPrice, line.StandardQuantity, line.ActualQuantity, line.SourceRef,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, quantity)
	}

	return records, nil
}

// AnalyzeAll runs Analyze over a period's lines
func (a *Analyzer) AnalyzeAll(lines []ActualLine) ([]*CostVariance, error) {
	records := make([]*CostVariance, 0, len(lines))
	for _, line := range lines {
		lineRecords, err := a.Analyze(line)
		if err != nil {
			return nil, err
		}
		records = append(records, lineRecords...)
	}
	return records, nil
}

// Contributor is one material's aggregate variance within a report
type Contributor struct {
	MaterialID uuid.UUID       `json:"material_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// PeriodReport aggregates a period's variances per material and category
type PeriodReport struct {
	Period           valueobject.FiscalPeriod             `json:"period"`
	PlantID          uuid.UUID                            `json:"plant_id"`
	TotalAmount      decimal.Decimal                      `json:"total_amount"`
	TotalFavorable   decimal.Decimal                      `json:"total_favorable"`
	TotalUnfavorable decimal.Decimal                      `json:"total_unfavorable"`
	ByCategory       map[VarianceCategory]decimal.Decimal `json:"by_category"`
	TopFavorable     []Contributor                        `json:"top_favorable"`
	TopUnfavorable   []Contributor                        `json:"top_unfavorable"`
	RecordCount      int                                  `json:"record_count"`
}

// BuildPeriodReport aggregates variance records into a period report with
// the top-N favorable and unfavorable contributors by material.
func BuildPeriodReport(plantID uuid.UUID, period valueobject.FiscalPeriod, records []*CostVariance, topN int) *PeriodReport {
	report := &PeriodReport{
		Period:           period,
		PlantID:          plantID,
		TotalAmount:      decimal.Zero,
		TotalFavorable:   decimal.Zero,
		TotalUnfavorable: decimal.Zero,
		ByCategory: map[VarianceCategory]decimal.Decimal{
			CategoryMaterial: decimal.Zero,
			CategoryLabor:    decimal.Zero,
			CategoryOverhead: decimal.Zero,
		},
		RecordCount: len(records),
	}

	byMaterial := make(map[uuid.UUID]decimal.Decimal)
	for _, record := range records {
		report.TotalAmount = report.TotalAmount.Add(record.Amount)
		report.ByCategory[record.Category] = report.ByCategory[record.Category].Add(record.Amount)
		if record.IsFavorable() {
			report.TotalFavorable = report.TotalFavorable.Add(record.Amount)
		} else {
			report.TotalUnfavorable = report.TotalUnfavorable.Add(record.Amount)
		}
		byMaterial[record.MaterialID] = byMaterial[record.MaterialID].Add(record.Amount)
	}

	contributors := make([]Contributor, 0, len(byMaterial))
	for materialID, amount := range byMaterial {
		contributors = append(contributors, Contributor{MaterialID: materialID, Amount: amount})
	}

	report.TopFavorable = topContributors(contributors, topN, true)
	report.TopUnfavorable = topContributors(contributors, topN, false)
	return report
}

func topContributors(contributors []Contributor, n int, favorable bool) []Contributor {
	filtered := make([]Contributor, 0, len(contributors))
	for _, c := range contributors {
		if favorable && c.Amount.IsNegative() {
			filtered = append(filtered, c)
		}
		if !favorable && c.Amount.IsPositive() {
			filtered = append(filtered, c)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		if favorable {
			return filtered[i].Amount.LessThan(filtered[j].Amount)
		}
		return filtered[i].Amount.GreaterThan(filtered[j].Amount)
	})

	if n > 0 && len(filtered) > n {
		filtered = filtered[:n]
	}
	return filtered
}
