// Package query turns a filter selection into backend request payloads.
//
// Building is pure: the same filter.State always yields the same payload,
// which is what makes response caching and saved views reproducible.
package query

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/filter"
)

// CompareRequest is the body of POST /compare_data_aggregated. It backs both
// the map and the comparison screens.
type CompareRequest struct {
	Countries     []string `json:"countries" validate:"required,min=1,dive,required"`
	Indicators    []string `json:"indicators" validate:"required,min=1,dive,required"`
	StartYear     int      `json:"startYear" validate:"gte=1900,lte=2024"`
	EndYear       int      `json:"endYear" validate:"gtefield=StartYear,lte=2024"`
	DisasterTypes []string `json:"disasterTypes" validate:"required,min=1,dive,required"`
}

// GlobalStatsRequest is the body of POST /global_stats.
type GlobalStatsRequest struct {
	StartYear     int      `json:"startYear" validate:"gte=1900,lte=2024"`
	EndYear       int      `json:"endYear" validate:"gtefield=StartYear,lte=2024"`
	DisasterTypes []string `json:"disasterTypes" validate:"required,min=1,dive,required"`
	Indicators    []string `json:"indicators" validate:"required,min=1,dive,required"`
	AggregateBy   string   `json:"aggregateBy" validate:"oneof='Individual Disasters' 'Disaster Types'"`
	SortOption    string   `json:"sortOption" validate:"oneof='Year (Ascending)' 'Year (Descending)' 'Indicator (Ascending)' 'Indicator (Descending)'"`
}

// CountryRequest is the body of POST /country_data.
type CountryRequest struct {
	Country string `json:"country" validate:"required"`
}

// StateRequest is the body of POST /state_data.
type StateRequest struct {
	State string `json:"state" validate:"required"`
}

// Builder derives request payloads from filter selections.
type Builder struct {
	validate *validator.Validate
}

// NewBuilder creates a Builder whose validation errors name the JSON field.
func NewBuilder() *Builder {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Builder{validate: v}
}

// Compare builds the aggregated comparison payload. At least one country is
// required; empty disaster types and indicators are replaced by defaults.
func (b *Builder) Compare(s filter.State) (CompareRequest, error) {
	if len(s.Countries()) == 0 {
		return CompareRequest{}, domain.NewValidationError("countries", "please select at least one country")
	}

	types, err := disasterTypes(s.DisasterTypes())
	if err != nil {
		return CompareRequest{}, err
	}

	keys := indicatorKeys(s.Indicators())
	exprs := make([]string, 0, len(keys))
	for _, k := range keys {
		ind, ok := domain.LookupIndicator(k)
		if !ok {
			return CompareRequest{}, domain.NewValidationError("indicators", "unknown indicator %q", k)
		}
		exprs = append(exprs, ind.Expression)
	}

	req := CompareRequest{
		Countries:     s.Countries(),
		Indicators:    exprs,
		StartYear:     s.StartYear(),
		EndYear:       s.EndYear(),
		DisasterTypes: types,
	}
	if err := b.check(req); err != nil {
		return CompareRequest{}, err
	}
	return req, nil
}

// GlobalStats builds the global statistics payload.
func (b *Builder) GlobalStats(s filter.State) (GlobalStatsRequest, error) {
	types, err := disasterTypes(s.DisasterTypes())
	if err != nil {
		return GlobalStatsRequest{}, err
	}

	keys := indicatorKeys(s.Indicators())
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := domain.LookupIndicator(k); !ok {
			return GlobalStatsRequest{}, domain.NewValidationError("indicators", "unknown indicator %q", k)
		}
		names = append(names, string(k))
	}

	req := GlobalStatsRequest{
		StartYear:     s.StartYear(),
		EndYear:       s.EndYear(),
		DisasterTypes: types,
		Indicators:    names,
		AggregateBy:   string(s.AggregateBy()),
		SortOption:    string(s.SortBy()),
	}
	if err := b.check(req); err != nil {
		return GlobalStatsRequest{}, err
	}
	return req, nil
}

// Country builds the country profile payload.
func (b *Builder) Country(name string) (CountryRequest, error) {
	req := CountryRequest{Country: strings.TrimSpace(name)}
	if err := b.check(req); err != nil {
		return CountryRequest{}, err
	}
	return req, nil
}

// State builds the US state profile payload.
func (b *Builder) State(name string) (StateRequest, error) {
	req := StateRequest{State: strings.TrimSpace(name)}
	if err := b.check(req); err != nil {
		return StateRequest{}, err
	}
	return req, nil
}

// ParseYear coerces free-text year input. Anything that is not a whole
// number is a ValidationError carrying a message fit for the user.
func ParseYear(field, text string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, domain.NewValidationError(field, "%q is not a valid year", text)
	}
	return year, nil
}

func disasterTypes(selected []domain.DisasterType) ([]string, error) {
	if len(selected) == 0 {
		selected = domain.WorldDisasterTypes()
	}
	out := make([]string, 0, len(selected))
	for _, t := range selected {
		if !domain.IsWorldDisasterType(t) {
			return nil, domain.NewValidationError("disasterTypes", "unknown disaster type %q", t)
		}
		out = append(out, string(t))
	}
	return out, nil
}

func indicatorKeys(selected []domain.IndicatorKey) []domain.IndicatorKey {
	if len(selected) == 0 {
		return domain.DefaultIndicators()
	}
	return selected
}

// check runs struct validation and flattens the first failure into a
// ValidationError.
func (b *Builder) check(req any) error {
	err := b.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate request: %w", err)
	}
	fe := verrs[0]
	return &domain.ValidationError{Field: fe.Field(), Message: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "min":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be %s or later", fe.Param())
	case "lte":
		return fmt.Sprintf("must be %s or earlier", fe.Param())
	case "gtefield":
		return "must not be before startYear"
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
