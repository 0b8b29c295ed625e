package services

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/security/validation"
)

// FieldErrors maps a form field name to its validation message.
type FieldErrors map[string]string

// FormError carries every invalid field of a submitted form.
type FormError struct {
	Fields FieldErrors
}

func (e *FormError) Error() string {
	return fmt.Sprintf("%s: %d invalid field(s)", validation.ErrValidationFailed, len(e.Fields))
}

func (e *FormError) Unwrap() error { return validation.ErrValidationFailed }

func (f FieldErrors) add(field string, err error) {
	if err == nil {
		return
	}
	if _, exists := f[field]; !exists {
		f[field] = err.Error()
	}
}

func (f FieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &FormError{Fields: f}
}

// FieldErrorsOf extracts per-field messages from a validation error.
func FieldErrorsOf(err error) FieldErrors {
	var fe *FormError
	if errors.As(err, &fe) {
		return fe.Fields
	}
	return nil
}

// NewInvestmentForm is a validated add-investment submission.
type NewInvestmentForm struct {
	Symbol        string
	Name          string
	Type          models.InvestmentType
	Quantity      float64
	PurchasePrice float64
	CurrentPrice  float64
}

// ParseNewInvestmentForm validates every field; any invalid field fails the form.
func ParseNewInvestmentForm(v url.Values) (NewInvestmentForm, error) {
	errs := FieldErrors{}
	var form NewInvestmentForm
	var err error

	form.Symbol = validation.NormalizeSymbol(v.Get("symbol"))
	errs.add("symbol", validation.ValidateSymbol(form.Symbol))

	form.Name = validation.CleanText(v.Get("name"))
	errs.add("name", validation.ValidateStringNotEmpty(form.Name, "Name"))
	errs.add("name", validation.ValidateStringMaxLength(form.Name, validation.MaxNameLength, "Name"))

	if form.Type, err = models.ParseInvestmentType(v.Get("type")); err != nil {
		errs.add("type", fmt.Errorf("%w: %v", validation.ErrValidationFailed, err))
	}

	form.Quantity, err = validation.ValidateNonNegativeDecimal(v.Get("quantity"), "Quantity", validation.QuantityPlaces)
	errs.add("quantity", err)
	form.PurchasePrice, err = validation.ValidateNonNegativeDecimal(v.Get("purchase_price"), "Purchase price", validation.PricePlaces)
	errs.add("purchase_price", err)
	form.CurrentPrice, err = validation.ValidateNonNegativeDecimal(v.Get("current_price"), "Current price", validation.PricePlaces)
	errs.add("current_price", err)

	return form, errs.err()
}

// EditInvestmentForm holds the only two fields an existing holding may change.
type EditInvestmentForm struct {
	Quantity     float64
	CurrentPrice float64
}

func ParseEditInvestmentForm(v url.Values) (EditInvestmentForm, error) {
	errs := FieldErrors{}
	var form EditInvestmentForm
	var err error

	form.Quantity, err = validation.ValidateNonNegativeDecimal(v.Get("quantity"), "Quantity", validation.QuantityPlaces)
	errs.add("quantity", err)
	form.CurrentPrice, err = validation.ValidateNonNegativeDecimal(v.Get("current_price"), "Current price", validation.PricePlaces)
	errs.add("current_price", err)

	return form, errs.err()
}

// WatchlistForm is a validated watchlist submission. Blank sector and notes are nil.
type WatchlistForm struct {
	Symbol string
	Name   string
	Sector *string
	Notes  *string
}

func ParseWatchlistForm(v url.Values) (WatchlistForm, error) {
	errs := FieldErrors{}
	form := WatchlistForm{
		Symbol: validation.NormalizeSymbol(v.Get("symbol")),
		Name:   validation.CleanText(v.Get("name")),
		Sector: validation.OptionalText(v.Get("sector")),
		Notes:  validation.OptionalText(v.Get("notes")),
	}

	errs.add("symbol", validation.ValidateSymbol(form.Symbol))
	errs.add("name", validation.ValidateStringNotEmpty(form.Name, "Name"))
	errs.add("name", validation.ValidateStringMaxLength(form.Name, validation.MaxNameLength, "Name"))
	if form.Sector != nil {
		errs.add("sector", validation.ValidateStringMaxLength(*form.Sector, validation.DefaultMaxStringLength, "Sector"))
	}
	if form.Notes != nil {
		errs.add("notes", validation.ValidateStringMaxLength(*form.Notes, validation.MaxNotesLength, "Notes"))
	}

	return form, errs.err()
}

// CredentialsForm is a sign-in or sign-up submission.
type CredentialsForm struct {
	Email    string
	Password string
}

func ParseCredentialsForm(v url.Values) (CredentialsForm, error) {
	errs := FieldErrors{}
	email, err := validation.ValidateEmail(v.Get("email"))
	errs.add("email", err)
	password := v.Get("password")
	errs.add("password", validation.ValidatePassword(password))
	return CredentialsForm{Email: email, Password: password}, errs.err()
}
