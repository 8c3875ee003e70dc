package model

import (
	"math"
	"strconv"
	"strings"

	"github.com/pennypal/pennypal/internal/apperr"
)

// DateLayout is the wire format of due dates.
const DateLayout = "2006-01-02"

// StatusActive is the status every inserted payment starts with.
const StatusActive = "active"

// Option is a selectable value with its display label.
type Option struct {
	Value string
	Label string
}

// Categories offered by the add-payment form.
var Categories = []Option{
	{"housing", "Housing"},
	{"utilities", "Utilities"},
	{"food", "Food"},
	{"transportation", "Transportation"},
}

// Frequencies offered by the add-payment form.
var Frequencies = []Option{
	{"monthly", "Monthly"},
	{"weekly", "Weekly"},
	{"yearly", "Yearly"},
	{"one-time", "One-time"},
}

// Methods offered by the add-payment form.
var Methods = []Option{
	{"hdfc1234", "HDFC Bank ****1234"},
	{"sbi5678", "SBI Bank ****5678"},
}

// DefaultFrequency is used when the form leaves frequency empty.
const DefaultFrequency = "One-time"

// Payment is a row in the payments table.
type Payment struct {
	ID                 FlexID  `json:"id,omitempty"`
	Name               string  `json:"payment_name"`
	Category           string  `json:"category"`
	Amount             float64 `json:"amount"`
	Frequency          string  `json:"frequency"`
	Method             string  `json:"payment_method"`
	DueDate            string  `json:"due_date"`
	Autopay            bool    `json:"autopay"`
	AuthID             string  `json:"auth_id"`
	Status             string  `json:"status"`
	AutoPaymentEnabled bool    `json:"auto_payment_enabled"`
}

// Active reports whether the payment is an active auto-payment. Status
// alone never makes a payment active.
func (p Payment) Active() bool {
	return p.Autopay && p.Status == StatusActive
}

// AutopayEnabled mirrors the autopay flag.
func (p Payment) AutopayEnabled() bool {
	return p.Autopay
}

// PaymentForm is the raw add-payment input as typed by the user.
type PaymentForm struct {
	Name      string
	Amount    string
	Category  string
	Frequency string
	Method    string
	DueDate   string
	Autopay   bool
}

// DefaultPaymentForm returns the form's initial values.
func DefaultPaymentForm() PaymentForm {
	return PaymentForm{
		Category:  Categories[0].Value,
		Frequency: Frequencies[0].Value,
		Method:    Methods[0].Value,
	}
}

// ToPayment validates the form and builds the row for userID.
func (f PaymentForm) ToPayment(userID string) (Payment, error) {
	name := strings.TrimSpace(f.Name)
	amountText := strings.TrimSpace(f.Amount)
	due := strings.TrimSpace(f.DueDate)
	if name == "" || amountText == "" || due == "" {
		return Payment{}, apperr.Validation("Please fill all fields.")
	}

	amount, err := ParseAmount(amountText)
	if err != nil {
		return Payment{}, err
	}
	freq := f.Frequency
	if freq == "" {
		freq = DefaultFrequency
	}

	return Payment{
		Name:               name,
		Category:           f.Category,
		Amount:             amount,
		Frequency:          freq,
		Method:             f.Method,
		DueDate:            due,
		Autopay:            f.Autopay,
		AuthID:             userID,
		Status:             StatusActive,
		AutoPaymentEnabled: f.Autopay,
	}, nil
}

// ParseAmount parses a rupee amount, tolerating a leading ₹ and
// thousands separators. NaN and infinities are rejected.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "₹")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &apperr.ValidationError{Field: "amount", Message: "Amount must be a number."}
	}
	return v, nil
}

// LabelFor returns the label of value in opts, or value itself.
func LabelFor(opts []Option, value string) string {
	for _, o := range opts {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}
