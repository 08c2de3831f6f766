package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opencensus.io/stats/view"
)

func TestRecordRun(t *testing.T) {
	require.NoError(t, Register())
	require.NoError(t, Register())

	before := violations(t)
	RecordRun(context.Background(), Run{Strategy: "spin", Passed: true, LatencyMs: 1.5})
	RecordRun(context.Background(), Run{Strategy: "unguarded", Passed: false, LatencyMs: 2, Races: 3})
	require.Equal(t, before+1, violations(t))

	rows, err := view.RetrieveData(Runs.Name())
	require.NoError(t, err)
	require.NotEmpty(t, rows)
}

func violations(t *testing.T) float64 {
	t.Helper()
	rows, err := view.RetrieveData(Violations.Name())
	require.NoError(t, err)
	var total float64
	for _, row := range rows {
		if sd, ok := row.Data.(*view.SumData); ok {
			total += sd.Value
		}
	}
	return total
}

func TestHandler(t *testing.T) {
	h, err := Handler()
	require.NoError(t, err)
	require.NotNil(t, h)
}
