package query

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	gdpExpr = "AVG(ne.GDPAnnualPercentGrowth) AS AvgGDP"
	cpiExpr = "AVG(ne.CPI_2010_100) AS AvgCPI"
)

func TestCompare_JapanDefaults(t *testing.T) {
	s := filter.New()
	s.SetCountries("Japan")
	require.True(t, s.SetYearRange(2000, 2010))

	req, err := NewBuilder().Compare(s)
	require.NoError(t, err)

	assert.Equal(t, CompareRequest{
		Countries:     []string{"Japan"},
		Indicators:    []string{gdpExpr, cpiExpr},
		StartYear:     2000,
		EndYear:       2010,
		DisasterTypes: []string{"Earthquake", "Tsunami", "Volcano"},
	}, req)
}

func TestCompare_WireShape(t *testing.T) {
	s := filter.New()
	s.SetCountries("Chile")
	s.SetDisasterTypes(domain.Tsunami)
	s.SetIndicators(domain.AvgUnemployment)

	req, err := NewBuilder().Compare(s)
	require.NoError(t, err)

	raw, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"countries": ["Chile"],
		"indicators": ["AVG(ne.UnemploymentPercent) AS AvgUnemployment"],
		"startYear": 2000,
		"endYear": 2020,
		"disasterTypes": ["Tsunami"]
	}`, string(raw))
}

func TestCompare_NoCountriesIsValidationError(t *testing.T) {
	_, err := NewBuilder().Compare(filter.New())

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "countries", verr.Field)
}

func TestCompare_UnknownDisasterType(t *testing.T) {
	s := filter.New()
	s.SetCountries("Japan")
	s.SetDisasterTypes(domain.Tornado)

	_, err := NewBuilder().Compare(s)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "disasterTypes", verr.Field)
}

func TestCompare_UnknownIndicator(t *testing.T) {
	s := filter.New()
	s.SetCountries("Japan")
	s.SetIndicators("AvgHappiness")

	_, err := NewBuilder().Compare(s)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "indicators", verr.Field)
}

func TestCompare_Deterministic(t *testing.T) {
	a := filter.New()
	a.SetCountries("Peru", "Chile")
	a.SetDisasterTypes(domain.Volcano, domain.Earthquake)

	b := filter.New()
	b.SetCountries("Chile", "Peru")
	b.SetDisasterTypes(domain.Earthquake, domain.Volcano)

	builder := NewBuilder()
	ra, err := builder.Compare(a)
	require.NoError(t, err)
	rb, err := builder.Compare(b)
	require.NoError(t, err)
	assert.Equal(t, ra, rb)
}

func TestGlobalStats_UsesIndicatorKeys(t *testing.T) {
	s := filter.New()
	s.SetIndicators(domain.AvgCPI)
	s.SetSortBy(domain.SortIndicatorDesc)
	s.SetAggregateBy(domain.AggregateIndividual)

	req, err := NewBuilder().GlobalStats(s)
	require.NoError(t, err)

	assert.Equal(t, GlobalStatsRequest{
		StartYear:     2000,
		EndYear:       2020,
		DisasterTypes: []string{"Earthquake", "Tsunami", "Volcano"},
		Indicators:    []string{"AvgCPI"},
		AggregateBy:   "Individual Disasters",
		SortOption:    "Indicator (Descending)",
	}, req)
}

func TestGlobalStats_DefaultIndicators(t *testing.T) {
	req, err := NewBuilder().GlobalStats(filter.New())
	require.NoError(t, err)
	assert.Equal(t, []string{"AvgGDP", "AvgCPI"}, req.Indicators)
}

func TestGlobalStats_RestoresLegacyIndicatorKey(t *testing.T) {
	s := filter.Decode([]byte(`{"selectedIndicators": ["AvgAgrictultureGrowth"]}`))

	req, err := NewBuilder().GlobalStats(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"AvgAgricultureGrowth"}, req.Indicators)
}

func TestGlobalStats_UnknownSortOption(t *testing.T) {
	s := filter.New()
	s.SetSortBy("Alphabetical")

	_, err := NewBuilder().GlobalStats(s)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "sortOption", verr.Field)
}

func TestCountryAndState_RequireName(t *testing.T) {
	b := NewBuilder()

	req, err := b.Country("  Japan ")
	require.NoError(t, err)
	assert.Equal(t, "Japan", req.Country)

	_, err = b.Country(" ")
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "country", verr.Field)

	sreq, err := b.State("Texas")
	require.NoError(t, err)
	assert.Equal(t, "Texas", sreq.State)

	_, err = b.State("")
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "state", verr.Field)
}

func TestParseYear(t *testing.T) {
	year, err := ParseYear("startYear", " 1999 ")
	require.NoError(t, err)
	assert.Equal(t, 1999, year)

	_, err = ParseYear("startYear", "nineteen")
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "startYear", verr.Field)
}
