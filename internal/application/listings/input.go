package listings

import (
	"strings"

	"homesocial-backend/internal/pkg/validation"
)

// ListingInput is the set of fields the owner controls. Composer and editor
// share it, so both apply the same rules.
type ListingInput struct {
	Title       string   `json:"title" validate:"required,min=3"`
	Price       *float64 `json:"price" validate:"required,min=1,max=999999999999"`
	Beds        *int     `json:"beds" validate:"required,min=0,max=1000"`
	Baths       *float64 `json:"baths" validate:"required,min=0,max=999"`
	Sqft        *float64 `json:"sqft" validate:"omitempty,min=0,max=10000000"`
	Address     string   `json:"address" validate:"required,min=3"`
	City        string   `json:"city" validate:"required,min=2"`
	State       string   `json:"state" validate:"required,len=2"`
	Zip         string   `json:"zip" validate:"required,min=5,max=10"`
	Description *string  `json:"description"`
}

// Normalize trims text, upper-cases the state and turns a blank description into null.
func (in *ListingInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.ToUpper(strings.TrimSpace(in.State))
	in.Zip = strings.TrimSpace(in.Zip)
	if in.Description != nil {
		in.Description = validation.NullIfEmpty(*in.Description)
	}
}

// Validate normalizes and checks the input, returning the first *validation.FieldError.
func (in *ListingInput) Validate() error {
	in.Normalize()
	return validation.Struct(in)
}

// ParseForm reads listing fields from string form values. Blank numbers
// become null and then fail the required check where one applies.
func ParseForm(value func(key string) string) (ListingInput, error) {
	in := ListingInput{
		Title:       value("title"),
		Address:     value("address"),
		City:        value("city"),
		State:       value("state"),
		Zip:         value("zip"),
		Description: validation.NullIfEmpty(value("description")),
	}
	var err error
	if in.Price, err = validation.OptionalFloat("price", value("price")); err != nil {
		return in, err
	}
	if in.Beds, err = validation.OptionalInt("beds", value("beds")); err != nil {
		return in, err
	}
	if in.Baths, err = validation.OptionalFloat("baths", value("baths")); err != nil {
		return in, err
	}
	if in.Sqft, err = validation.OptionalFloat("sqft", value("sqft")); err != nil {
		return in, err
	}
	return in, nil
}

// columns maps the input onto listing columns for a full update.
func (in ListingInput) columns() map[string]interface{} {
	return map[string]interface{}{
		"title":       in.Title,
		"price":       *in.Price,
		"beds":        *in.Beds,
		"baths":       *in.Baths,
		"sqft":        in.Sqft,
		"address":     in.Address,
		"city":        in.City,
		"state":       in.State,
		"zip":         in.Zip,
		"description": in.Description,
	}
}
