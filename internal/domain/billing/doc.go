// Package billing provides domain models for patient invoicing in a hospital.
//
// This package implements the invoicing bounded context, which is responsible
// for:
//   - Building invoices from chargeable line items (manual and auto-charged)
//   - Enforcing the draft, finalized, cancelled and reversed lifecycle
//   - Recording payments against finalized invoices
//
// Key Aggregates:
//   - Invoice: The invoice with its line items, payments and advance
//     adjustments; all mutation goes through the aggregate root
//
// Entities owned by the aggregate:
//   - InvoiceItem: A billed service or manual charge with quantity, tariff
//     and tax
//   - Payment: A settlement received against a finalized invoice
//
// The billing domain integrates with:
//   - Advance domain: Deposits are consumed against invoice balances via
//     AdvanceAdjustment entries
//   - Clinical contexts: Bed stays and OT cases are billed through the acl
//     subpackage ports
package billing
