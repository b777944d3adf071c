package payload

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	ErrNonPositiveAmount = errors.New("order amount must be positive")

	validate = validator.New()
)

// Order is the caller facing description of a payment. Amount is expressed in
// major currency units and sent to the wall in minor units.
type Order struct {
	Stamp        string            `json:"stamp,omitempty"`
	Amount       decimal.Decimal   `json:"amount"`
	Reference    string            `json:"reference,omitempty"`
	Message      string            `json:"message,omitempty"`
	ReturnURL    string            `json:"returnUrl,omitempty" validate:"omitempty,url"`
	CancelURL    string            `json:"cancelUrl,omitempty" validate:"omitempty,url"`
	RejectURL    string            `json:"rejectUrl,omitempty" validate:"omitempty,url"`
	DelayedURL   string            `json:"delayedUrl,omitempty" validate:"omitempty,url"`
	DeliveryDate string            `json:"deliveryDate,omitempty" validate:"omitempty,len=8,numeric"`
	FirstName    string            `json:"firstName,omitempty"`
	FamilyName   string            `json:"familyName,omitempty"`
	Address      string            `json:"address,omitempty"`
	PostCode     string            `json:"postCode,omitempty"`
	PostOffice   string            `json:"postOffice,omitempty"`
	Email        string            `json:"email,omitempty" validate:"omitempty,email"`
	Phone        string            `json:"phone,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// Validate checks the tagged fields and the amount. Every entry point runs it
// before an order reaches the wall.
func (o *Order) Validate() error {
	if err := validate.Struct(o); err != nil {
		return err
	}
	if !o.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	return nil
}

// MinorUnits renders the amount in cents, the unit the wall expects.
func (o Order) MinorUnits() string {
	return o.Amount.Shift(2).Round(0).String()
}

// Overrides turns the order into payload overrides. Empty fields are left out
// so the configured defaults apply; Extra is merged last and wins.
func (o Order) Overrides(now time.Time) Payload {
	p := Payload{
		"STAMP":  o.Stamp,
		"AMOUNT": o.MinorUnits(),
	}
	if p["STAMP"] == "" {
		p["STAMP"] = stamp(now)
	}
	optional := map[string]string{
		"REFERENCE":     o.Reference,
		"MESSAGE":       o.Message,
		"RETURN":        o.ReturnURL,
		"CANCEL":        o.CancelURL,
		"REJECT":        o.RejectURL,
		"DELAYED":       o.DelayedURL,
		"DELIVERY_DATE": o.DeliveryDate,
		"FIRSTNAME":     o.FirstName,
		"FAMILYNAME":    o.FamilyName,
		"ADDRESS":       o.Address,
		"POSTCODE":      o.PostCode,
		"POSTOFFICE":    o.PostOffice,
		"EMAIL":         o.Email,
		"PHONE":         o.Phone,
	}
	for k, v := range optional {
		if v != "" {
			p[k] = v
		}
	}
	return Merge(p, o.Extra)
}

// DemoOverrides is the sample order used when a run is started without one.
func DemoOverrides(now time.Time) Payload {
	return Payload{
		"STAMP":         stamp(now),
		"REFERENCE":     "0",
		"MESSAGE":       "Food",
		"RETURN":        "http://example.com/return",
		"CANCEL":        "http://example.com/return",
		"AMOUNT":        "1234",
		"DELIVERY_DATE": "20170518",
		"FIRSTNAME":     "Meh",
		"FAMILYNAME":    "Blem",
		"ADDRESS":       "Fakestreet 1234",
		"POSTCODE":      "33720",
		"POSTOFFICE":    "Tampere",
		"EMAIL":         "support@checkout.fi",
		"PHONE":         "0800 552 010",
	}
}

func stamp(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}
