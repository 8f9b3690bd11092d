package aggregation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fertpulse/pkg/contracts/domain"
)

func TestPresentMonths(t *testing.T) {
	records := []domain.Record{
		{Month: "June"}, {Month: "April"}, {Month: "june"}, {Month: ""}, {Month: "April"}, {Month: "January"},
	}
	assert.Equal(t, []string{"January", "April", "June"}, PresentMonths(records))
	assert.Empty(t, PresentMonths(nil))
}

func TestIsMonth(t *testing.T) {
	assert.True(t, IsMonth("December"))
	assert.False(t, IsMonth("december"))
	assert.False(t, IsMonth(""))
}

func TestDistinct(t *testing.T) {
	assert.Equal(t, []string{"Bihar", "Punjab", "Uttar Pradesh"}, Distinct(sampleRecords(), FieldState))
	assert.Equal(t, []string{"DAP", "MOP", "Urea"}, Distinct(sampleRecords(), FieldProduct))
	assert.Empty(t, Distinct(nil, FieldProduct))
}

func TestDistinctYears(t *testing.T) {
	records := []domain.Record{{Year: year(2024)}, {}, {Year: year(2022)}, {Year: year(2024)}}
	assert.Equal(t, []string{"2022", "2024"}, DistinctYears(records))
}

func TestWithMatchAll(t *testing.T) {
	assert.Equal(t, []string{MatchAll, "a", "b"}, WithMatchAll(MatchAll, []string{"a", "b"}))
	assert.Equal(t, []string{MatchAll}, WithMatchAll(MatchAll, nil))
}
