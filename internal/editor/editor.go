package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	ErrValidation     = errors.New("profile has invalid fields")
	ErrSaveFailed     = errors.New("profile save failed")
	ErrSaveInProgress = errors.New("a save is already in progress")
	ErrUnknownField   = errors.New("unknown field")
)

const (
	SaveFailedMessage = "Failed to save changes. Please try again."
	SavedMessage      = "Changes saved."
)

type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country"`
}

type Restaurant struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Cuisine     string  `json:"cuisine,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	Website     string  `json:"website,omitempty"`
	Description string  `json:"description,omitempty"`
	Address     Address `json:"address"`
}

// FormatAddress joins the non-empty address parts with ", " in postal order.
func FormatAddress(a Address) string {
	parts := make([]string, 0, 6)
	for _, p := range []string{a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Field names a single editable input. The values double as the keys of
// FieldErrors.
type Field string

const (
	FieldName        Field = "name"
	FieldCuisine     Field = "cuisine"
	FieldPhone       Field = "phone"
	FieldWebsite     Field = "website"
	FieldDescription Field = "description"
	FieldLine1       Field = "address.line1"
	FieldLine2       Field = "address.line2"
	FieldCity        Field = "address.city"
	FieldState       Field = "address.state"
	FieldPostalCode  Field = "address.postalCode"
	FieldCountry     Field = "address.country"
)

var requiredFields = []struct {
	field Field
	label string
}{
	{FieldName, "Restaurant name"},
	{FieldLine1, "Address line 1"},
	{FieldCity, "City"},
	{FieldCountry, "Country"},
}

type FieldErrors map[Field]string

// Validate returns an inline message for every required field left blank.
// The result is empty when r can be saved.
func Validate(r Restaurant) FieldErrors {
	errs := FieldErrors{}
	for _, rf := range requiredFields {
		if strings.TrimSpace(value(&r, rf.field)) == "" {
			errs[rf.field] = rf.label + " is required"
		}
	}
	return errs
}

func value(r *Restaurant, f Field) string {
	if p := fieldPtr(r, f); p != nil {
		return *p
	}
	return ""
}

func fieldPtr(r *Restaurant, f Field) *string {
	switch f {
	case FieldName:
		return &r.Name
	case FieldCuisine:
		return &r.Cuisine
	case FieldPhone:
		return &r.Phone
	case FieldWebsite:
		return &r.Website
	case FieldDescription:
		return &r.Description
	case FieldLine1:
		return &r.Address.Line1
	case FieldLine2:
		return &r.Address.Line2
	case FieldCity:
		return &r.Address.City
	case FieldState:
		return &r.Address.State
	case FieldPostalCode:
		return &r.Address.PostalCode
	case FieldCountry:
		return &r.Address.Country
	}
	return nil
}

// Saver persists a validated profile.
type Saver interface {
	Save(ctx context.Context, r Restaurant) error
}

// Form is the editing state of one restaurant profile: the working copy,
// inline errors, a status message and whether a save is running.
type Form struct {
	mu         sync.Mutex
	restaurant Restaurant
	errors     FieldErrors
	message    string
	saving     bool
	saver      Saver
	onBack     func()
}

// NewForm starts editing initial. onBack may be nil.
func NewForm(initial Restaurant, saver Saver, onBack func()) *Form {
	return &Form{restaurant: initial, errors: FieldErrors{}, saver: saver, onBack: onBack}
}

// Set updates one field and clears any inline error it carried.
func (f *Form) Set(field Field, v string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := fieldPtr(&f.restaurant, field)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	*p = v
	delete(f.errors, field)
	return nil
}

func (f *Form) SetName(v string) error    { return f.Set(FieldName, v) }
func (f *Form) SetCuisine(v string) error { return f.Set(FieldCuisine, v) }
func (f *Form) SetPhone(v string) error   { return f.Set(FieldPhone, v) }

// SetAddress replaces the whole address.
func (f *Form) SetAddress(a Address) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restaurant.Address = a
	for _, k := range []Field{FieldLine1, FieldLine2, FieldCity, FieldState, FieldPostalCode, FieldCountry} {
		delete(f.errors, k)
	}
}

// Apply copies every editable field of r into the form. The ID is kept.
func (f *Form) Apply(r Restaurant) {
	f.mu.Lock()
	r.ID = f.restaurant.ID
	f.restaurant = r
	f.errors = FieldErrors{}
	f.mu.Unlock()
}

func (f *Form) Restaurant() Restaurant {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.restaurant
}

func (f *Form) Errors() FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(FieldErrors, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

func (f *Form) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

func (f *Form) Saving() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saving
}

// Validate refreshes the inline errors and reports whether the form can be
// submitted.
func (f *Form) Validate() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = Validate(f.restaurant)
	return len(f.errors) == 0
}

// Submit validates and saves the form. On validation failure the inline
// errors are set and the saver is never called. On save failure the status
// message is SaveFailedMessage and the saver's error is wrapped in
// ErrSaveFailed.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.saving {
		f.mu.Unlock()
		return ErrSaveInProgress
	}
	f.errors = Validate(f.restaurant)
	if len(f.errors) > 0 {
		f.message = ""
		f.mu.Unlock()
		return ErrValidation
	}
	f.saving = true
	f.message = ""
	snapshot := f.restaurant
	f.mu.Unlock()

	err := f.saver.Save(ctx, snapshot)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.saving = false
	if err != nil {
		f.message = SaveFailedMessage
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	f.message = SavedMessage
	return nil
}

// Back leaves the editor without saving.
func (f *Form) Back() {
	if f.onBack != nil {
		f.onBack()
	}
}
