package acl

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/hims/backend/internal/domain/shared/valueobject"
)

// ServicePrice is the Billing-local snapshot of a price master entry.
// It carries only what the calculator needs: the unit price and the tax
// rate to apply, plus the display name the invoice line should show.
type ServicePrice struct {
	ServiceCode string
	DisplayName string
	UnitPrice   valueobject.Money
	TaxRate     decimal.Decimal
}

// PriceResolver resolves billable service codes to their current price
// master entry. Auto-charge integrators use it to price bed days and OT
// procedures without depending on the clinical contexts' schemas.
type PriceResolver interface {
	// ResolvePrice returns the current price entry for a service code.
	// Returns an error when the code is unknown or has no active price.
	ResolvePrice(ctx context.Context, serviceCode string) (ServicePrice, error)
}
