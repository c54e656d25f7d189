// Package ingest parses the daily box-office revenue CSV into a stream of
// validated observations.
package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/boxoffice-cli/internal/model"
)

// Quality tracks data-quality issues observed during a parse pass. Issues are
// recorded, never fatal: a flagged row still yields an observation (or is
// skipped and counted) and the run continues.
type Quality struct {
	Rows               atomic.Int64 // observations emitted
	Skipped            atomic.Int64 // unparseable rows dropped
	ZeroRevenue        atomic.Int64 // blank or zero revenue fields
	EmptyTheaters      atomic.Int64
	MissingDistributor atomic.Int64
}

// Options configures the CSV stream.
type Options struct {
	Delimiter       rune   // default ','
	Encoding        string // IANA charset name; "" means UTF-8
	SkipZeroRevenue bool   // drop rows whose revenue is zero
}

var requiredColumns = []string{"id", "date", "title"}

// Stream reads the revenue CSV and sends parsed observations to a channel.
// The caller must consume the observation channel; errors are sent on the
// error channel. Both channels are closed when processing completes. Rows
// that fail to parse are logged, counted in Quality, and skipped.
func Stream(ctx context.Context, r io.Reader, opts Options) (<-chan model.RevenueObservation, <-chan error, *Quality) {
	obsCh := make(chan model.RevenueObservation, 64)
	errCh := make(chan error, 1)
	quality := &Quality{}

	go func() {
		defer close(obsCh)
		defer close(errCh)

		if opts.Encoding != "" {
			enc, err := htmlindex.Get(opts.Encoding)
			if err != nil {
				errCh <- eris.Wrapf(err, "ingest: unknown encoding %q", opts.Encoding)
				return
			}
			r = enc.NewDecoder().Reader(r)
		}

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		reader.FieldsPerRecord = -1

		header, err := reader.Read()
		if err != nil {
			errCh <- eris.Wrap(err, "ingest: read header")
			return
		}
		cols, err := indexColumns(header)
		if err != nil {
			errCh <- err
			return
		}

		for rowNum := 2; ; rowNum++ {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "ingest: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "ingest: read row")
				return
			}

			obs, err := parseRow(cols, record, quality)
			if err != nil {
				zap.L().Warn("skipping unparseable row",
					zap.Int("row", rowNum),
					zap.Error(err),
				)
				quality.Skipped.Add(1)
				continue
			}

			if opts.SkipZeroRevenue && obs.Revenue.IsZero() {
				quality.Skipped.Add(1)
				continue
			}

			select {
			case obsCh <- obs:
				quality.Rows.Add(1)
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "ingest: context cancelled")
				return
			}
		}
	}()

	return obsCh, errCh, quality
}

// StreamFile opens path and streams its rows. A missing or unreadable file is
// returned immediately as an error; the file is closed when the stream ends.
func StreamFile(ctx context.Context, path string, opts Options) (<-chan model.RevenueObservation, <-chan error, *Quality, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, eris.Wrapf(err, "ingest: open %s", path)
	}

	obsCh, errCh, quality := Stream(ctx, f, opts)

	// Drain the error channel through a wrapper so the file closes once the
	// reader goroutine finishes.
	wrapped := make(chan error, 1)
	go func() {
		defer close(wrapped)
		defer f.Close()
		for err := range errCh {
			wrapped <- err
		}
	}()

	return obsCh, wrapped, quality, nil
}

// ReadAll collects every observation from path into memory.
func ReadAll(ctx context.Context, path string, opts Options) ([]model.RevenueObservation, *Quality, error) {
	obsCh, errCh, quality, err := StreamFile(ctx, path, opts)
	if err != nil {
		return nil, nil, err
	}

	var observations []model.RevenueObservation
	for obs := range obsCh {
		observations = append(observations, obs)
	}
	if err := <-errCh; err != nil {
		return nil, quality, err
	}

	return observations, quality, nil
}

func indexColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range requiredColumns {
		if _, ok := cols[required]; !ok {
			return nil, eris.Errorf("ingest: missing required column %q", required)
		}
	}
	return cols, nil
}

func field(cols map[string]int, record []string, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseRow(cols map[string]int, record []string, quality *Quality) (model.RevenueObservation, error) {
	var obs model.RevenueObservation

	obs.ID = field(cols, record, "id")
	if obs.ID == "" {
		return obs, eris.New("ingest: missing id")
	}

	dateStr := field(cols, record, "date")
	if dateStr == "" {
		return obs, eris.New("ingest: missing date")
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return obs, eris.Wrapf(err, "ingest: invalid date %q", dateStr)
	}
	obs.Date = date

	obs.Title = field(cols, record, "title")
	if obs.Title == "" {
		return obs, eris.New("ingest: missing title")
	}

	// Blank revenue is a data-quality issue, not an error: default to zero.
	revenueStr := field(cols, record, "revenue")
	if revenueStr == "" || revenueStr == "0" {
		quality.ZeroRevenue.Add(1)
		obs.Revenue = decimal.Zero
	} else {
		revenue, err := decimal.NewFromString(revenueStr)
		if err != nil {
			return obs, eris.Wrapf(err, "ingest: invalid revenue %q", revenueStr)
		}
		if revenue.IsNegative() {
			return obs, eris.Errorf("ingest: negative revenue %q", revenueStr)
		}
		obs.Revenue = revenue
	}

	theatersStr := field(cols, record, "theaters")
	if theatersStr == "" {
		quality.EmptyTheaters.Add(1)
	} else {
		theaters, err := strconv.Atoi(theatersStr)
		if err != nil {
			return obs, eris.Wrapf(err, "ingest: invalid theater count %q", theatersStr)
		}
		obs.Theaters = theaters
		obs.HasTheaters = true
	}

	// The source uses a literal "-" for missing distributor as well as blank.
	distributorStr := field(cols, record, "distributor")
	if distributorStr == "" || distributorStr == "-" {
		quality.MissingDistributor.Add(1)
	} else {
		obs.Distributor = distributorStr
		obs.HasDistributor = true
	}

	return obs, nil
}
