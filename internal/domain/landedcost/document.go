package landedcost

import (
	"time"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentStatus is the lifecycle state of a landed cost document
type DocumentStatus string

const (
	DocumentStatusDraft      DocumentStatus = "DRAFT"
	DocumentStatusCalculated DocumentStatus = "CALCULATED"
	DocumentStatusPosted     DocumentStatus = "POSTED"
)

// String returns the string representation of the document status
func (s DocumentStatus) String() string {
	return string(s)
}

// AllocationBasis determines how an indirect cost spreads across lines
type AllocationBasis string

const (
	BasisValue    AllocationBasis = "VALUE"
	BasisQuantity AllocationBasis = "QUANTITY"
	BasisWeight   AllocationBasis = "WEIGHT"
	BasisVolume   AllocationBasis = "VOLUME"
	BasisManual   AllocationBasis = "MANUAL"
)

// String returns the string representation of the allocation basis
func (b AllocationBasis) String() string {
	return string(b)
}

// IsValid returns true if the allocation basis is valid
func (b AllocationBasis) IsValid() bool {
	switch b {
	case BasisValue, BasisQuantity, BasisWeight, BasisVolume, BasisManual:
		return true
	}
	return false
}

// CostType classifies an indirect acquisition cost
type CostType string

const (
	CostTypeFreight   CostType = "FREIGHT"
	CostTypeDuty      CostType = "DUTY"
	CostTypeInsurance CostType = "INSURANCE"
	CostTypeHandling  CostType = "HANDLING"
	CostTypeOther     CostType = "OTHER"
)

// IsValid returns true if the cost type is valid
func (t CostType) IsValid() bool {
	switch t {
	case CostTypeFreight, CostTypeDuty, CostTypeInsurance, CostTypeHandling, CostTypeOther:
		return true
	}
	return false
}

// LandedCostLine is one material line of a landed cost document
type LandedCostLine struct {
	shared.BaseEntity
	DocumentID uuid.UUID       `gorm:"type:uuid;not null;index:idx_landed_line_document"`
	MaterialID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BasePrice  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Weight     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Volume     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	AllocatedCost     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalLandedCost   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	LandedCostPerUnit decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (LandedCostLine) TableName() string {
	return "landed_cost_lines"
}

// BaseAmount is the line's base value: base price times quantity
func (l *LandedCostLine) BaseAmount() decimal.Decimal {
	return l.BasePrice.Mul(l.Quantity).Round(valueobject.MoneyScale)
}

// IndirectCost is one indirect acquisition cost to be allocated across
// the document's lines. For MANUAL basis the per-line amounts are given
// explicitly, keyed by line ID, and must sum to Amount.
type IndirectCost struct {
	shared.BaseEntity
	DocumentID    uuid.UUID                  `gorm:"type:uuid;not null;index:idx_landed_cost_document"`
	Type          CostType                   `gorm:"type:varchar(20);not null"`
	Basis         AllocationBasis            `gorm:"type:varchar(20);not null"`
	Amount        decimal.Decimal            `gorm:"type:decimal(18,2);not null"`
	ManualAmounts map[string]decimal.Decimal `gorm:"serializer:json"`
}

// TableName returns the table name for GORM
func (IndirectCost) TableName() string {
	return "landed_cost_indirect_costs"
}

// LandedCostDocument batches the allocation of indirect acquisition costs
// over a set of material lines. Lifecycle DRAFT -> CALCULATED -> POSTED;
// POSTED is terminal and the document becomes immutable.
type LandedCostDocument struct {
	shared.BaseAggregateRoot
	PlantID     uuid.UUID            `gorm:"type:uuid;not null;index"`
	Reference   string               `gorm:"type:varchar(100)"`
	Currency    valueobject.Currency `gorm:"type:varchar(3);not null"`
	Status      DocumentStatus       `gorm:"type:varchar(20);not null"`
	PostingDate time.Time            `gorm:"type:timestamptz;not null"`

	Lines         []LandedCostLine `gorm:"foreignKey:DocumentID;references:ID"`
	IndirectCosts []IndirectCost   `gorm:"foreignKey:DocumentID;references:ID"`

	CalculatedAt *time.Time `gorm:"type:timestamptz"`
	PostedAt     *time.Time `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (LandedCostDocument) TableName() string {
	return "landed_cost_documents"
}

// NewLandedCostDocument creates a draft document
func NewLandedCostDocument(plantID uuid.UUID, reference string, currency valueobject.Currency, postingDate time.Time) (*LandedCostDocument, error) {
	if plantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PLANT", "Plant ID cannot be empty")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	return &LandedCostDocument{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PlantID:           plantID,
		Reference:         reference,
		Currency:          currency,
		Status:            DocumentStatusDraft,
		PostingDate:       postingDate,
		Lines:             make([]LandedCostLine, 0),
		IndirectCosts:     make([]IndirectCost, 0),
	}, nil
}

// AddLine adds a material line to a draft document
func (d *LandedCostDocument) AddLine(materialID uuid.UUID, quantity, basePrice, weight, volume decimal.Decimal) error {
	if d.Status != DocumentStatusDraft {
		return shared.ErrInvalidState
	}
	if materialID == uuid.Nil {
		return shared.NewDomainError("INVALID_MATERIAL", "Material ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
	}
	if basePrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Base price cannot be negative")
	}
	if weight.IsNegative() || volume.IsNegative() {
		return shared.NewDomainError("INVALID_MEASURE", "Weight and volume cannot be negative")
	}

	d.Lines = append(d.Lines, LandedCostLine{
		BaseEntity: shared.NewBaseEntity(),
		DocumentID: d.ID,
		MaterialID: materialID,
		Quantity:   quantity,
		BasePrice:  basePrice,
		Weight:     weight,
		Volume:     volume,
	})
	d.UpdatedAt = time.Now()
	return nil
}

// AddIndirectCost adds an indirect cost component to a draft document
func (d *LandedCostDocument) AddIndirectCost(costType CostType, basis AllocationBasis, amount decimal.Decimal, manualAmounts map[string]decimal.Decimal) error {
	if d.Status != DocumentStatusDraft {
		return shared.ErrInvalidState
	}
	if !costType.IsValid() {
		return shared.NewDomainError("INVALID_COST_TYPE", "Invalid indirect cost type")
	}
	if !basis.IsValid() {
		return shared.NewDomainError("INVALID_BASIS", "Invalid allocation basis")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Indirect cost amount must be positive")
	}
	if basis == BasisManual && len(manualAmounts) == 0 {
		return shared.NewDomainError("MISSING_MANUAL_AMOUNTS", "Manual basis requires per-line amounts")
	}

	d.IndirectCosts = append(d.IndirectCosts, IndirectCost{
		BaseEntity:    shared.NewBaseEntity(),
		DocumentID:    d.ID,
		Type:          costType,
		Basis:         basis,
		Amount:        amount.Round(valueobject.MoneyScale),
		ManualAmounts: manualAmounts,
	})
	d.UpdatedAt = time.Now()
	return nil
}

// Calculate allocates every indirect cost across the lines and derives
// each line's landed totals. Requires DRAFT with at least one line.
func (d *LandedCostDocument) Calculate() error {
	if d.Status != DocumentStatusDraft {
		return shared.ErrInvalidState
	}
	if len(d.Lines) == 0 {
		return shared.ErrEmptyDocument
	}

	for i := range d.Lines {
		d.Lines[i].AllocatedCost = decimal.Zero
	}

	for _, cost := range d.IndirectCosts {
		if err := d.allocate(cost); err != nil {
			return err
		}
	}

	for i := range d.Lines {
		line := &d.Lines[i]
		line.TotalLandedCost = line.BaseAmount().Add(line.AllocatedCost)
		line.LandedCostPerUnit = line.TotalLandedCost.Div(line.Quantity).Round(valueobject.PriceScale)
		line.UpdatedAt = time.Now()
	}

	now := time.Now()
	d.Status = DocumentStatusCalculated
	d.CalculatedAt = &now
	d.UpdatedAt = now
	d.IncrementVersion()
	return nil
}

func (d *LandedCostDocument) allocate(cost IndirectCost) error {
	if cost.Basis == BasisManual {
		return d.allocateManual(cost)
	}

	weights := make([]decimal.Decimal, len(d.Lines))
	for i, line := range d.Lines {
		switch cost.Basis {
		case BasisValue:
			weights[i] = line.BaseAmount()
		case BasisQuantity:
			weights[i] = line.Quantity
		case BasisWeight:
			weights[i] = line.Weight
		case BasisVolume:
			weights[i] = line.Volume
		}
	}

	pool, err := valueobject.NewMoney(cost.Amount, d.Currency)
	if err != nil {
		return err
	}
	shares, err := pool.AllocateByWeights(weights)
	if err != nil {
		return shared.ErrZeroBasis
	}

	for i := range d.Lines {
		d.Lines[i].AllocatedCost = d.Lines[i].AllocatedCost.Add(shares[i].Amount())
	}
	return nil
}

func (d *LandedCostDocument) allocateManual(cost IndirectCost) error {
	assigned := decimal.Zero
	for i := range d.Lines {
		amount, ok := cost.ManualAmounts[d.Lines[i].ID.String()]
		if !ok {
			continue
		}
		d.Lines[i].AllocatedCost = d.Lines[i].AllocatedCost.Add(amount.Round(valueobject.MoneyScale))
		assigned = assigned.Add(amount.Round(valueobject.MoneyScale))
	}

	if !assigned.Equal(cost.Amount) {
		return shared.NewDomainError("MANUAL_AMOUNT_MISMATCH", "Manual per-line amounts must sum to the component amount")
	}
	return nil
}

// Post finalizes the document. Requires CALCULATED; terminal thereafter.
// Emits one price-update instruction per line for the valuation store.
func (d *LandedCostDocument) Post() error {
	if d.Status != DocumentStatusCalculated {
		return shared.ErrInvalidState
	}

	now := time.Now()
	d.Status = DocumentStatusPosted
	d.PostedAt = &now
	d.UpdatedAt = now
	d.IncrementVersion()
	d.AddDomainEvent(NewDocumentPostedEvent(d))
	return nil
}

// TotalIndirectCost sums the document's indirect cost components
func (d *LandedCostDocument) TotalIndirectCost() decimal.Decimal {
	total := decimal.Zero
	for _, cost := range d.IndirectCosts {
		total = total.Add(cost.Amount)
	}
	return total
}

// TotalAllocatedCost sums the allocations across all lines
func (d *LandedCostDocument) TotalAllocatedCost() decimal.Decimal {
	total := decimal.Zero
	for _, line := range d.Lines {
		total = total.Add(line.AllocatedCost)
	}
	return total
}

// PriceUpdateInstruction tells the valuation store to debit a material's
// stock value with its allocated acquisition cost.
type PriceUpdateInstruction struct {
	MaterialID uuid.UUID       `json:"material_id"`
	PlantID    uuid.UUID       `json:"plant_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Amount     decimal.Decimal `json:"amount"`
	SourceRef  string          `json:"source_ref"`
}

// PriceUpdateInstructions returns one instruction per posted line
func (d *LandedCostDocument) PriceUpdateInstructions() []PriceUpdateInstruction {
	instructions := make([]PriceUpdateInstruction, 0, len(d.Lines))
	for _, line := range d.Lines {
		instructions = append(instructions, PriceUpdateInstruction{
			MaterialID: line.MaterialID,
			PlantID:    d.PlantID,
			Quantity:   line.Quantity,
			Amount:     line.AllocatedCost,
			SourceRef:  d.Reference,
		})
	}
	return instructions
}
