package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hims/backend/internal/domain/advance"
	"github.com/hims/backend/internal/domain/billing"
	"github.com/hims/backend/internal/domain/billing/acl"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/hims/backend/internal/domain/shared/valueobject"
)

// InvoiceService handles invoice business operations.
// Reads go straight to the repository; every mutation runs inside the
// transaction scope so that aggregate saves, anti-double-billing checks
// and deposit reversals commit together. The price resolver covers
// service-ref items added without an explicit unit price.
type InvoiceService struct {
	invoiceRepo   billing.InvoiceRepository
	priceResolver acl.PriceResolver
	scope         TransactionScope
}

// createNumberRetries bounds the regenerate-and-retry loop when a
// concurrent create claims the same invoice number first.
const createNumberRetries = 3

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(invoiceRepo billing.InvoiceRepository, priceResolver acl.PriceResolver, scope TransactionScope) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:   invoiceRepo,
		priceResolver: priceResolver,
		scope:         scope,
	}
}

// Create opens a new draft invoice, optionally seeded with manual items.
// The invoice number is generated by reading the current maximum, so a
// concurrent create can mint the same number; the loser's save reports
// the duplicate and the whole transaction retries with a fresh number.
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	var response InvoiceResponse

	var err error
	for attempt := 0; attempt < createNumberRetries; attempt++ {
		err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			invoiceNumber, err := repos.InvoiceRepo().GenerateInvoiceNumber(ctx, req.BillingType)
			if err != nil {
				return err
			}

			invoice, err := billing.NewInvoice(invoiceNumber, req.PatientID, req.BillingType, req.ContextType, req.ContextID)
			if err != nil {
				return err
			}

			if err := invoice.UpdateHeader(billing.HeaderChanges{
				ConsultantID: req.ConsultantID,
				ProviderID:   req.ProviderID,
				Remarks:      &req.Remarks,
			}); err != nil {
				return err
			}

			for _, item := range req.Items {
				unitPrice := valueobject.NewMoneyINR(item.UnitPrice)
				if _, err := invoice.AddManualItem(item.Description, item.Quantity, unitPrice, item.TaxRate); err != nil {
					return err
				}
			}

			if err := repos.InvoiceRepo().Save(ctx, invoice); err != nil {
				return err
			}

			response = ToInvoiceResponse(invoice)
			return nil
		})
		if !errors.Is(err, billing.ErrDuplicateInvoiceNumber) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	return &response, nil
}

// GetByID retrieves an invoice by ID
func (s *InvoiceService) GetByID(ctx context.Context, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// GetByInvoiceNumber retrieves an invoice by its number
func (s *InvoiceService) GetByInvoiceNumber(ctx context.Context, invoiceNumber string) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByInvoiceNumber(ctx, invoiceNumber)
	if err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// List retrieves invoices with filtering and pagination
func (s *InvoiceService) List(ctx context.Context, filter InvoiceListFilter) ([]InvoiceListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := billing.InvoiceFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
		PatientID:   filter.PatientID,
		Status:      filter.Status,
		BillingType: filter.BillingType,
		ContextType: filter.ContextType,
		ContextID:   filter.ContextID,
		FromDate:    filter.StartDate,
		ToDate:      filter.EndDate,
	}

	invoices, err := s.invoiceRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.invoiceRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToInvoiceListItemResponses(invoices), total, nil
}

// ListByPatient retrieves invoices for a specific patient
func (s *InvoiceService) ListByPatient(ctx context.Context, patientID uuid.UUID, filter InvoiceListFilter) ([]InvoiceListItemResponse, int64, error) {
	filter.PatientID = &patientID
	return s.List(ctx, filter)
}

// Update updates the invoice header fields (draft only)
func (s *InvoiceService) Update(ctx context.Context, invoiceID uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	var response InvoiceResponse

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}

		if err := invoice.UpdateHeader(billing.HeaderChanges{
			BillingType:  req.BillingType,
			ConsultantID: req.ConsultantID,
			ProviderID:   req.ProviderID,
			Remarks:      req.Remarks,
		}); err != nil {
			return err
		}

		if err := repos.InvoiceRepo().SaveWithLock(ctx, invoice); err != nil {
			return err
		}

		response = ToInvoiceResponse(invoice)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &response, nil
}

// AddItem adds a line item to a draft invoice. When the request carries a
// service reference, the system-wide anti-double-billing check runs inside
// the same transaction as the save, and an omitted unit price is resolved
// from the price master through the service code.
func (s *InvoiceService) AddItem(ctx context.Context, invoiceID uuid.UUID, req AddInvoiceItemRequest) (*InvoiceResponse, error) {
	var response InvoiceResponse

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}

		if req.ServiceType != "" || req.ServiceRefID != nil {
			if req.ServiceType == "" || req.ServiceRefID == nil {
				return shared.NewDomainError("INVALID_ITEM_INPUT", "Service reference is incomplete")
			}
			ref := billing.ServiceRef{ServiceType: req.ServiceType, ServiceRefID: *req.ServiceRefID}

			existing, err := repos.InvoiceRepo().FindActiveServiceItem(ctx, ref)
			if err != nil {
				return err
			}
			if existing != nil {
				return shared.NewDomainError("SERVICE_ALREADY_BILLED", "Service is already billed on another invoice")
			}

			description := req.Description
			taxRate := req.TaxRate
			var unitPrice valueobject.Money
			if req.UnitPrice != nil {
				unitPrice = valueobject.NewMoneyINR(*req.UnitPrice)
			} else {
				if req.ServiceCode == "" {
					return shared.NewDomainError("INVALID_ITEM_INPUT", "Service code is required to resolve the unit price")
				}
				price, err := s.priceResolver.ResolvePrice(ctx, req.ServiceCode)
				if err != nil {
					return err
				}
				unitPrice = price.UnitPrice
				taxRate = price.TaxRate
				if description == "" {
					description = price.DisplayName
				}
			}

			if _, err := invoice.AddServiceItem(ref, description, req.Quantity, unitPrice, taxRate); err != nil {
				return err
			}
		} else {
			if req.UnitPrice == nil {
				return shared.NewDomainError("INVALID_ITEM_INPUT", "Unit price is required for manually entered items")
			}
			if _, err := invoice.AddManualItem(req.Description, req.Quantity, valueobject.NewMoneyINR(*req.UnitPrice), req.TaxRate); err != nil {
				return err
			}
		}

		if err := repos.InvoiceRepo().SaveWithLock(ctx, invoice); err != nil {
			return err
		}

		response = ToInvoiceResponse(invoice)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &response, nil
}

// UpdateItem updates a line item on a draft invoice
func (s *InvoiceService) UpdateItem(ctx context.Context, invoiceID, itemID uuid.UUID, req UpdateInvoiceItemRequest) (*InvoiceResponse, error) {
	var response InvoiceResponse

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}

		if err := invoice.UpdateItem(itemID, billing.ItemChanges{
			Quantity:  req.Quantity,
			UnitPrice: req.UnitPrice,
			TaxRate:   req.TaxRate,
		}); err != nil {
			return err
		}

		if err := repos.InvoiceRepo().SaveWithLock(ctx, invoice); err != nil {
			return err
		}

		response = ToInvoiceResponse(invoice)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &response, nil
}

// VoidItem voids a line item, freeing its service reference for re-billing
func (s *InvoiceService) VoidItem(ctx context.Context, invoiceID, itemID uuid.UUID, req VoidInvoiceItemRequest) (*InvoiceResponse, error) {
	var response InvoiceResponse

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}

		if err := invoice.VoidItem(itemID, req.Reason); err != nil {
			return err
		}

		if err := repos.InvoiceRepo().SaveWithLock(ctx, invoice); err != nil {
			return err
		}

		response = ToInvoiceResponse(invoice)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &response, nil
}

// AddPayment records a payment against a draft invoice
func (s *InvoiceService) AddPayment(ctx context.Context, invoiceID uuid.UUID, req AddPaymentRequest) (*InvoiceResponse, error) {
	var response InvoiceResponse

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}

		amount := valueobject.NewMoneyINR(req.Amount)
		if _, err := invoice.AddPayment(amount, valueobject.PaymentMode(req.Mode), req.ReferenceNo); err != nil {
			return err
		}

		if err := repos.InvoiceRepo().SaveWithLock(ctx, invoice); err != nil {
			return err
		}

		response = ToInvoiceResponse(invoice)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &response, nil
}

// DeletePayment removes a payment record from a draft invoice
func (s *InvoiceService) DeletePayment(ctx context.Context, invoiceID, paymentID uuid.UUID) (*InvoiceResponse, error) {
	var response InvoiceResponse

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}

		if err := invoice.DeletePayment(paymentID); err != nil {
			return err
		}

		if err := repos.InvoiceRepo().SaveWithLock(ctx, invoice); err != nil {
			return err
		}

		response = ToInvoiceResponse(invoice)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &response, nil
}

// Finalize locks the invoice against further item and payment mutation
func (s *InvoiceService) Finalize(ctx context.Context, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	var response InvoiceResponse

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}

		if err := invoice.Finalize(); err != nil {
			return err
		}

		if err := repos.InvoiceRepo().SaveWithLock(ctx, invoice); err != nil {
			return err
		}

		response = ToInvoiceResponse(invoice)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &response, nil
}

// Cancel cancels an invoice and reverses its outstanding advance
// adjustments, restoring each funding deposit in the same transaction
func (s *InvoiceService) Cancel(ctx context.Context, invoiceID uuid.UUID, req CancelInvoiceRequest) (*InvoiceResponse, error) {
	var response InvoiceResponse

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}

		if err := invoice.Cancel(req.Reason); err != nil {
			return err
		}

		if err := s.unwindAdjustments(ctx, repos, invoice); err != nil {
			return err
		}

		if err := repos.InvoiceRepo().SaveWithLock(ctx, invoice); err != nil {
			return err
		}

		response = ToInvoiceResponse(invoice)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &response, nil
}

// Reverse reverses a finalized invoice through the administrative path,
// unwinding its advance adjustments like a cancellation
func (s *InvoiceService) Reverse(ctx context.Context, invoiceID uuid.UUID, req ReverseInvoiceRequest) (*InvoiceResponse, error) {
	var response InvoiceResponse

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}

		if err := invoice.Reverse(req.Reason); err != nil {
			return err
		}

		if err := s.unwindAdjustments(ctx, repos, invoice); err != nil {
			return err
		}

		if err := repos.InvoiceRepo().SaveWithLock(ctx, invoice); err != nil {
			return err
		}

		response = ToInvoiceResponse(invoice)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &response, nil
}

// unwindAdjustments restores every deposit that funded the invoice and
// deletes the adjustment records, bringing the invoice's advance-adjusted
// figure back to zero.
func (s *InvoiceService) unwindAdjustments(ctx context.Context, repos TransactionalRepositories, invoice *billing.Invoice) error {
	adjustments, err := repos.AdjustmentRepo().FindByInvoice(ctx, invoice.ID)
	if err != nil {
		return err
	}

	for idx := range adjustments {
		adj := &adjustments[idx]

		deposit, err := repos.AdvanceRepo().FindByID(ctx, adj.AdvanceID)
		if err != nil {
			return err
		}

		if err := deposit.Restore(adj.GetAmountMoney()); err != nil {
			return err
		}
		deposit.AddDomainEvent(advance.NewAdvanceRestoredEvent(deposit, adj.InvoiceID, adj.AmountApplied))

		if err := repos.AdvanceRepo().SaveWithLock(ctx, deposit); err != nil {
			return err
		}

		if err := repos.AdjustmentRepo().Delete(ctx, adj.ID); err != nil {
			return err
		}

		if err := invoice.RemoveAdvanceAdjustment(adj.GetAmountMoney()); err != nil {
			return err
		}
	}

	return nil
}
