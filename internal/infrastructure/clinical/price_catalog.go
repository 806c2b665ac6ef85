// Package clinical provides adapters to the clinical systems the billing
// context consumes: the service price master, the admission/bed-stay feed
// and the operation theatre schedule. The in-memory implementations are
// placeholders until the hospital's ADT and price-master integrations are
// wired.
package clinical

import (
	"context"
	"sync"

	"github.com/hims/backend/internal/domain/billing/acl"
	"github.com/hims/backend/internal/domain/shared"
)

// InMemoryPriceCatalog is an in-memory implementation of PriceResolver.
// Prices are registered at startup or by tests.
type InMemoryPriceCatalog struct {
	mu     sync.RWMutex
	prices map[string]acl.ServicePrice
}

// NewInMemoryPriceCatalog creates an empty price catalog
func NewInMemoryPriceCatalog() *InMemoryPriceCatalog {
	return &InMemoryPriceCatalog{
		prices: make(map[string]acl.ServicePrice),
	}
}

// Register adds or replaces a price entry for a service code
func (c *InMemoryPriceCatalog) Register(price acl.ServicePrice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[price.ServiceCode] = price
}

// ResolvePrice returns the tariff for a service code
func (c *InMemoryPriceCatalog) ResolvePrice(_ context.Context, serviceCode string) (acl.ServicePrice, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	price, ok := c.prices[serviceCode]
	if !ok {
		return acl.ServicePrice{}, shared.NewDomainError("SERVICE_PRICE_NOT_FOUND", "No price is configured for service code "+serviceCode)
	}
	return price, nil
}

// Ensure InMemoryPriceCatalog implements PriceResolver
var _ acl.PriceResolver = (*InMemoryPriceCatalog)(nil)
