package valueobject

// PaymentMode represents the instrument used to settle a payment or deposit
type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "cash"
	PaymentModeCard   PaymentMode = "card"
	PaymentModeUPI    PaymentMode = "upi"
	PaymentModeCredit PaymentMode = "credit"
	PaymentModeCheque PaymentMode = "cheque"
	PaymentModeNEFT   PaymentMode = "neft"
	PaymentModeRTGS   PaymentMode = "rtgs"
	PaymentModeWallet PaymentMode = "wallet"
	PaymentModeOther  PaymentMode = "other"
)

// IsValid checks if the mode is a known PaymentMode
func (m PaymentMode) IsValid() bool {
	switch m {
	case PaymentModeCash, PaymentModeCard, PaymentModeUPI, PaymentModeCredit,
		PaymentModeCheque, PaymentModeNEFT, PaymentModeRTGS, PaymentModeWallet,
		PaymentModeOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMode
func (m PaymentMode) String() string {
	return string(m)
}
