package models

import "time"

// PlanCode identifies a purchasable plan.
type PlanCode string

const (
	PlanProMonthly PlanCode = "pro_monthly"
	PlanProYearly  PlanCode = "pro_yearly"
	PlanProPlus    PlanCode = "pro_plus"
)

// Plan describes what a plan grants and costs.
type Plan struct {
	Code         PlanCode `json:"code"`
	Name         string   `json:"name"`
	Tier         Tier     `json:"tier"`
	Cycle        string   `json:"cycle"`
	DurationDays int      `json:"duration_days"`
	AmountMinor  int64    `json:"amount_minor"`
	Currency     string   `json:"currency"`
}

// Plans is the catalogue of purchasable plans.
var Plans = map[PlanCode]Plan{
	PlanProMonthly: {Code: PlanProMonthly, Name: "Pro", Tier: TierPro, Cycle: "monthly", DurationDays: 30, AmountMinor: 99900, Currency: "INR"},
	PlanProYearly:  {Code: PlanProYearly, Name: "Pro", Tier: TierPro, Cycle: "yearly", DurationDays: 365, AmountMinor: 899900, Currency: "INR"},
	PlanProPlus:    {Code: PlanProPlus, Name: "Pro Plus", Tier: TierProPlus, Cycle: "yearly", DurationDays: 365, AmountMinor: 2999900, Currency: "INR"},
}

// PendingOrder is the short-lived checkout state kept between order creation and payment.
type PendingOrder struct {
	OrderID     string    `json:"order_id"`
	Plan        PlanCode  `json:"plan"`
	Cycle       string    `json:"cycle"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
}

// Subscription is the active paid period of a user.
type Subscription struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Plan      PlanCode  `db:"plan" json:"plan"`
	Tier      Tier      `db:"tier" json:"tier"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	Active    bool      `db:"active" json:"active"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Invoice is a paid receipt for a subscription purchase.
type Invoice struct {
	ID          string    `db:"id" json:"id"`
	Number      string    `db:"number" json:"number"`
	UserID      string    `db:"user_id" json:"user_id"`
	Plan        PlanCode  `db:"plan" json:"plan"`
	AmountMinor int64     `db:"amount_minor" json:"amount_minor"`
	Currency    string    `db:"currency" json:"currency"`
	OrderID     string    `db:"order_id" json:"order_id"`
	PaymentID   string    `db:"payment_id" json:"payment_id"`
	Paid        bool      `db:"paid" json:"paid"`
	PDFPath     *string   `db:"pdf_path" json:"pdf_path,omitempty"`
	IssuedAt    time.Time `db:"issued_at" json:"issued_at"`
}

// CheckoutRequest starts a purchase.
type CheckoutRequest struct {
	Plan PlanCode `json:"plan" validate:"required,oneof=pro_monthly pro_yearly pro_plus"`
}

// CheckoutResponse is what the client hands to the payment widget.
type CheckoutResponse struct {
	OrderID     string   `json:"order_id"`
	KeyID       string   `json:"key_id"`
	Plan        PlanCode `json:"plan"`
	AmountMinor int64    `json:"amount_minor"`
	Currency    string   `json:"currency"`
}

// ConfirmPaymentRequest carries the gateway callback.
type ConfirmPaymentRequest struct {
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// ConfirmPaymentResponse reports the activated subscription.
type ConfirmPaymentResponse struct {
	Subscription Subscription `json:"subscription"`
	Invoice      Invoice      `json:"invoice"`
}
