package aggregation

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fertpulse/pkg/contracts/domain"
)

func productGroups(values ...float64) *Groups {
	names := []string{"Urea", "DAP", "MOP", "SSP", "NPK", "Ammonium Sulphate", "Zinc"}
	records := make([]domain.Record, len(values))
	for i, v := range values {
		records[i] = domain.Record{
			Product:      names[i],
			Requirement:  domain.NewQuantity(formatQuantity(v)),
			Availability: domain.NewQuantity("1"),
		}
	}
	return GroupAndSum(records, ByField(FieldProduct))
}

func formatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func TestTopNDescending(t *testing.T) {
	groups := productGroups(10, 70, 30, 50, 60, 20, 40)

	top, err := TopN(groups, RowRequirement, DefaultTopN, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"DAP", "NPK", "SSP", "Zinc", "MOP"}, keys(top))

	chosen := map[string]bool{}
	for _, row := range top {
		chosen[row.Key] = true
	}
	for _, row := range groups.Rows() {
		if chosen[row.Key] {
			continue
		}
		for _, picked := range top {
			assert.GreaterOrEqual(t, picked.Requirement, row.Requirement)
		}
	}
}

func TestTopNAscending(t *testing.T) {
	groups := productGroups(10, 70, 30, 50, 60, 20, 40)

	bottom, err := TopN(groups, RowRequirement, DefaultTopN, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Urea", "Ammonium Sulphate", "MOP", "Zinc", "SSP"}, keys(bottom))
}

func TestTopNTiesKeepInsertionOrder(t *testing.T) {
	groups := productGroups(5, 5, 9, 5)

	top, err := TopN(groups, RowRequirement, 3, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"MOP", "Urea", "DAP"}, keys(top))
}

func TestTopNFewerGroups(t *testing.T) {
	groups := productGroups(1, 2)

	top, err := TopN(groups, RowRequirement, DefaultTopN, false)
	require.NoError(t, err)
	assert.Len(t, top, 2)
}

func TestTopNEdgeCases(t *testing.T) {
	top, err := TopN(GroupAndSum(nil, ByField(FieldProduct)), RowAvailability, DefaultTopN, false)
	require.NoError(t, err)
	assert.Empty(t, top)

	top, err = TopN(productGroups(1, 2), RowRequirement, 0, false)
	require.NoError(t, err)
	assert.Empty(t, top)

	top, err = TopN(nil, RowRequirement, 5, false)
	require.NoError(t, err)
	assert.Empty(t, top)

	_, err = TopN(productGroups(1), RowKey, 5, false)
	assert.ErrorIs(t, err, ErrUnknownSortKey)
}
