package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/boxoffice-cli/internal/model"
)

const sampleCSV = `id,date,title,revenue,theaters,distributor
1,2020-01-01,Ad Astra,1204921.50,3450,Fox
2,2020-01-02,Ad Astra,,,-
3,2020-01-03,Parasite,850000,2001,Neon
`

func collect(t *testing.T, csv string, opts Options) ([]model.RevenueObservation, *Quality) {
	t.Helper()

	obsCh, errCh, quality := Stream(context.Background(), strings.NewReader(csv), opts)

	var observations []model.RevenueObservation
	for obs := range obsCh {
		observations = append(observations, obs)
	}
	require.NoError(t, <-errCh)
	return observations, quality
}

func TestStream_ParsesRows(t *testing.T) {
	t.Parallel()

	observations, quality := collect(t, sampleCSV, Options{})
	require.Len(t, observations, 3)

	first := observations[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "Ad Astra", first.Title)
	assert.Equal(t, "2020-01-01", first.Date.Format("2006-01-02"))
	want, _ := decimal.NewFromString("1204921.50")
	assert.True(t, first.Revenue.Equal(want))
	assert.True(t, first.HasTheaters)
	assert.Equal(t, 3450, first.Theaters)
	assert.True(t, first.HasDistributor)
	assert.Equal(t, "Fox", first.Distributor)

	assert.Equal(t, int64(3), quality.Rows.Load())
	assert.Equal(t, int64(0), quality.Skipped.Load())
}

func TestStream_BlankRevenueDefaultsToZero(t *testing.T) {
	t.Parallel()

	observations, quality := collect(t, sampleCSV, Options{})
	require.Len(t, observations, 3)

	blank := observations[1]
	assert.True(t, blank.Revenue.IsZero())
	assert.Equal(t, int64(1), quality.ZeroRevenue.Load())
}

func TestStream_NullableFields(t *testing.T) {
	t.Parallel()

	observations, quality := collect(t, sampleCSV, Options{})
	require.Len(t, observations, 3)

	// Row 2 has blank theaters and "-" distributor; both are absent, not
	// sentinel values.
	row := observations[1]
	assert.False(t, row.HasTheaters)
	assert.Equal(t, 0, row.Theaters)
	assert.False(t, row.HasDistributor)
	assert.Empty(t, row.Distributor)

	assert.Equal(t, int64(1), quality.EmptyTheaters.Load())
	assert.Equal(t, int64(1), quality.MissingDistributor.Load())
}

func TestStream_SkipsMalformedRows(t *testing.T) {
	t.Parallel()

	csv := `id,date,title,revenue,theaters,distributor
1,2020-01-01,Good,100,,
2,not-a-date,Bad,100,,
,2020-01-03,No ID,100,,
4,2020-01-04,,100,,
5,2020-01-05,Bad Revenue,abc,,
6,2020-01-06,Bad Theaters,100,xyz,
7,2020-01-07,Also Good,200,,
`
	observations, quality := collect(t, csv, Options{})

	require.Len(t, observations, 2)
	assert.Equal(t, "Good", observations[0].Title)
	assert.Equal(t, "Also Good", observations[1].Title)
	assert.Equal(t, int64(5), quality.Skipped.Load())
}

func TestStream_SkipZeroRevenue(t *testing.T) {
	t.Parallel()

	observations, quality := collect(t, sampleCSV, Options{SkipZeroRevenue: true})

	require.Len(t, observations, 2)
	assert.Equal(t, int64(1), quality.Skipped.Load())
	assert.Equal(t, int64(1), quality.ZeroRevenue.Load())
}

func TestStream_MissingRequiredColumn(t *testing.T) {
	t.Parallel()

	csv := "id,date,revenue\n1,2020-01-01,100\n"
	obsCh, errCh, _ := Stream(context.Background(), strings.NewReader(csv), Options{})
	for range obsCh {
	}

	err := <-errCh
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title")
}

func TestStream_UnknownEncoding(t *testing.T) {
	t.Parallel()

	obsCh, errCh, _ := Stream(context.Background(), strings.NewReader(sampleCSV), Options{Encoding: "not-a-charset"})
	for range obsCh {
	}

	err := <-errCh
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoding")
}

func TestReadAll_FileRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "revenues.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	observations, quality, err := ReadAll(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Len(t, observations, 3)
	assert.Equal(t, int64(3), quality.Rows.Load())
}

func TestReadAll_MissingFile(t *testing.T) {
	t.Parallel()

	_, _, err := ReadAll(context.Background(), filepath.Join(t.TempDir(), "absent.csv"), Options{})
	require.Error(t, err)
}
