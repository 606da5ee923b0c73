package landedcost

import (
	"context"
	"time"

	appledger "github.com/erp/costing/internal/application/ledger"
	"github.com/erp/costing/internal/domain/landedcost"
	domledger "github.com/erp/costing/internal/domain/ledger"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
)

// MovementPoster posts the per-line landed cost debits into the material
// ledger. Satisfied by the ledger posting service.
type MovementPoster interface {
	PostMovement(ctx context.Context, req appledger.PostMovementRequest) (*appledger.EntryResponse, error)
}

// DocumentService handles landed cost allocation use cases. Posting a
// document debits each line's allocated cost into the material ledger as a
// LANDED_COST movement.
type DocumentService struct {
	documentRepo   landedcost.LandedCostDocumentRepository
	poster         MovementPoster
	eventPublisher shared.EventPublisher
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(documentRepo landedcost.LandedCostDocumentRepository, poster MovementPoster) *DocumentService {
	return &DocumentService{
		documentRepo: documentRepo,
		poster:       poster,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *DocumentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *DocumentService) publishDomainEvents(ctx context.Context, document *landedcost.LandedCostDocument) {
	if s.eventPublisher == nil {
		return
	}
	events := document.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	document.ClearDomainEvents()
}

// Create opens a draft document, optionally with initial lines and
// indirect costs.
func (s *DocumentService) Create(ctx context.Context, req CreateDocumentRequest) (*DocumentResponse, error) {
	postingDate := time.Now()
	if req.PostingDate != nil {
		postingDate = *req.PostingDate
	}

	document, err := landedcost.NewLandedCostDocument(req.PlantID, req.Reference, req.Currency, postingDate)
	if err != nil {
		return nil, err
	}

	for _, line := range req.Lines {
		if err := document.AddLine(line.MaterialID, line.Quantity, line.BasePrice, line.Weight, line.Volume); err != nil {
			return nil, err
		}
	}
	for _, cost := range req.IndirectCosts {
		if err := document.AddIndirectCost(cost.Type, cost.Basis, cost.Amount, cost.ManualAmounts); err != nil {
			return nil, err
		}
	}

	if err := s.documentRepo.Save(ctx, document); err != nil {
		return nil, err
	}

	response := ToDocumentResponse(document)
	return &response, nil
}

// AddLine appends a material line to a draft document
func (s *DocumentService) AddLine(ctx context.Context, documentID uuid.UUID, req LineRequest) (*DocumentResponse, error) {
	document, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if err := document.AddLine(req.MaterialID, req.Quantity, req.BasePrice, req.Weight, req.Volume); err != nil {
		return nil, err
	}
	if err := s.documentRepo.Save(ctx, document); err != nil {
		return nil, err
	}

	response := ToDocumentResponse(document)
	return &response, nil
}

// AddIndirectCost appends an indirect cost component to a draft document
func (s *DocumentService) AddIndirectCost(ctx context.Context, documentID uuid.UUID, req IndirectCostRequest) (*DocumentResponse, error) {
	document, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if err := document.AddIndirectCost(req.Type, req.Basis, req.Amount, req.ManualAmounts); err != nil {
		return nil, err
	}
	if err := s.documentRepo.Save(ctx, document); err != nil {
		return nil, err
	}

	response := ToDocumentResponse(document)
	return &response, nil
}

// Calculate allocates the document's indirect costs across its lines
func (s *DocumentService) Calculate(ctx context.Context, documentID uuid.UUID) (*DocumentResponse, error) {
	document, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	expectedVersion := document.Version
	if err := document.Calculate(); err != nil {
		return nil, err
	}
	if err := s.documentRepo.SaveWithLock(ctx, document, expectedVersion); err != nil {
		return nil, err
	}

	response := ToDocumentResponse(document)
	return &response, nil
}

// Post finalizes a calculated document and debits each line's allocated
// cost into the material ledger. The status transition commits first, so a
// concurrent double post loses the version check instead of debiting twice.
func (s *DocumentService) Post(ctx context.Context, documentID uuid.UUID) (*DocumentResponse, error) {
	document, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	expectedVersion := document.Version
	if err := document.Post(); err != nil {
		return nil, err
	}
	if err := s.documentRepo.SaveWithLock(ctx, document, expectedVersion); err != nil {
		return nil, err
	}

	postingDate := document.PostingDate
	for _, instruction := range document.PriceUpdateInstructions() {
		if instruction.Amount.IsZero() {
			continue
		}
		if _, err := s.poster.PostMovement(ctx, appledger.PostMovementRequest{
			MaterialID:   instruction.MaterialID,
			PlantID:      instruction.PlantID,
			MovementType: domledger.MovementLandedCost,
			Quantity:     instruction.Quantity,
			Amount:       instruction.Amount,
			PostingDate:  &postingDate,
			SourceRef:    instruction.SourceRef,
		}); err != nil {
			return nil, err
		}
	}

	s.publishDomainEvents(ctx, document)

	response := ToDocumentResponse(document)
	return &response, nil
}

// GetByID retrieves a document by ID
func (s *DocumentService) GetByID(ctx context.Context, documentID uuid.UUID) (*DocumentResponse, error) {
	document, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	response := ToDocumentResponse(document)
	return &response, nil
}

// ListByStatus lists documents with a given status
func (s *DocumentService) ListByStatus(ctx context.Context, status landedcost.DocumentStatus, filter DocumentListFilter) ([]DocumentResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	documents, total, err := s.documentRepo.FindByStatus(ctx, status, shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	})
	if err != nil {
		return nil, 0, err
	}
	return ToDocumentResponses(documents), total, nil
}
