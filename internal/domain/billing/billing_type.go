package billing

// BillingType classifies the department or billing run an invoice belongs to
type BillingType string

const (
	BillingTypeOP        BillingType = "op_billing"
	BillingTypeIP        BillingType = "ip_billing"
	BillingTypeOT        BillingType = "ot"
	BillingTypePharmacy  BillingType = "pharmacy"
	BillingTypeLab       BillingType = "lab"
	BillingTypeRadiology BillingType = "radiology"
	BillingTypeGeneral   BillingType = "general"
)

// IsValid checks if the billing type is a known BillingType
func (t BillingType) IsValid() bool {
	switch t {
	case BillingTypeOP, BillingTypeIP, BillingTypeOT, BillingTypePharmacy,
		BillingTypeLab, BillingTypeRadiology, BillingTypeGeneral:
		return true
	}
	return false
}

// String returns the string representation of BillingType
func (t BillingType) String() string {
	return string(t)
}

// NumberPrefix returns the short code used in generated invoice numbers
func (t BillingType) NumberPrefix() string {
	switch t {
	case BillingTypeOP:
		return "OP"
	case BillingTypeIP:
		return "IP"
	case BillingTypeOT:
		return "OT"
	case BillingTypePharmacy:
		return "PH"
	case BillingTypeLab:
		return "LAB"
	case BillingTypeRadiology:
		return "RAD"
	default:
		return "GEN"
	}
}

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusFinalized InvoiceStatus = "finalized"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
	InvoiceStatusReversed  InvoiceStatus = "reversed"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusFinalized, InvoiceStatusCancelled, InvoiceStatusReversed:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the invoice is in a terminal state
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusCancelled || s == InvoiceStatusReversed
}

// CanTransitionTo checks if the status can transition to the target status.
// reversed is reachable only from finalized and only through the
// administrative reversal path.
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft:
		return target == InvoiceStatusFinalized || target == InvoiceStatusCancelled
	case InvoiceStatusFinalized:
		return target == InvoiceStatusCancelled || target == InvoiceStatusReversed
	case InvoiceStatusCancelled, InvoiceStatusReversed:
		return false
	}
	return false
}

// AllowsItemMutation returns true if items and header fields may still change
func (s InvoiceStatus) AllowsItemMutation() bool {
	return s == InvoiceStatusDraft
}

// AllowsAdjustment returns true if advance adjustments may be applied or removed
func (s InvoiceStatus) AllowsAdjustment() bool {
	return s == InvoiceStatusDraft || s == InvoiceStatusFinalized
}
