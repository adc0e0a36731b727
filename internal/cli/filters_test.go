package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/filter"
)

func TestFilterFlags_Apply(t *testing.T) {
	flags := filterFlags{
		countries:  []string{"Japan", "Chile"},
		types:      []string{"Volcano"},
		indicators: []string{"Average Unemployment", "AvgGDP"},
		start:      "1995",
		end:        " 2011 ",
		aggregate:  "individual",
		sort:       "indicator-desc",
	}
	s := filter.New()

	notes, err := flags.apply(&s)
	require.NoError(t, err)
	assert.Empty(t, notes)

	assert.Equal(t, []string{"Chile", "Japan"}, s.Countries())
	assert.Equal(t, []domain.DisasterType{domain.Volcano}, s.DisasterTypes())
	assert.Equal(t, []domain.IndicatorKey{domain.AvgGDP, domain.AvgUnemployment}, s.Indicators())
	assert.Equal(t, 1995, s.StartYear())
	assert.Equal(t, 2011, s.EndYear())
	assert.Equal(t, domain.AggregateIndividual, s.AggregateBy())
	assert.Equal(t, domain.SortIndicatorDesc, s.SortBy())
}

func TestFilterFlags_InvertedRangeIsANote(t *testing.T) {
	s := filter.New()
	notes, err := (&filterFlags{start: "2019", end: "2001"}).apply(&s)
	require.NoError(t, err)

	require.Len(t, notes, 1)
	assert.Equal(t, filter.DefaultStartYear, s.StartYear())
	assert.Equal(t, filter.DefaultEndYear, s.EndYear())
}

func TestFilterFlags_NonNumericYear(t *testing.T) {
	s := filter.New()
	_, err := (&filterFlags{end: "20x0"}).apply(&s)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "endYear", verr.Field)
}

func TestParseViewID(t *testing.T) {
	id, err := parseViewID("#12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	_, err = parseViewID("twelve")
	require.Error(t, err)
	_, err = parseViewID("0")
	require.Error(t, err)
}
