package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/raykavin/optifolio/core"
)

// downloadHeaders is the column layout written by the downloader. Files in
// this layout round-trip through CSVFeed without a header map.
var downloadHeaders = []string{"date", "close"}

// BarSource fetches daily close bars for one symbol. Binance implements it.
type BarSource interface {
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]core.PriceBar, error)
}

// Downloader persists historical daily closes to CSV files, one file per
// symbol, so optimization runs can work offline.
type Downloader struct {
	source BarSource
	log    core.Logger
}

// NewDownloader creates a downloader backed by the given bar source.
func NewDownloader(source BarSource, log core.Logger) Downloader {
	return Downloader{source: source, log: log}
}

// DownloadParams defines the time range for a download.
type DownloadParams struct {
	Start time.Time
	End   time.Time
}

// DownloadOption configures download parameters.
type DownloadOption func(*DownloadParams)

// WithInterval sets explicit start and end times for the download.
func WithInterval(start, end time.Time) DownloadOption {
	return func(params *DownloadParams) {
		params.Start = start
		params.End = end
	}
}

// WithDays sets the download period to the last N days.
func WithDays(days int) DownloadOption {
	return func(params *DownloadParams) {
		params.Start = time.Now().AddDate(0, 0, -days)
		params.End = time.Now()
	}
}

// Download fetches daily bars for every symbol and writes one CSV per
// symbol under outputDir. Returns the written file paths keyed by symbol.
func (d Downloader) Download(ctx context.Context, symbols []string, outputDir string, options ...DownloadOption) (map[string]string, error) {
	ordered := dedupeSymbols(symbols)
	if len(ordered) == 0 {
		return nil, core.ErrEmptyPortfolio
	}

	params := defaultDownloadParams()
	for _, option := range options {
		option(params)
	}
	normalizeDownloadParams(params)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}

	days := int(params.End.Sub(params.Start)/(24*time.Hour)) + 1
	d.log.Infof("Downloading up to %d daily bars for %d symbols", days, len(ordered))

	progressBar := progressbar.Default(int64(len(ordered) * days))

	files := make(map[string]string, len(ordered))
	for _, symbol := range ordered {
		path := filepath.Join(outputDir, symbol+".csv")
		count, err := d.downloadSymbol(ctx, symbol, path, params)
		if err != nil {
			return nil, fmt.Errorf("downloading %s: %w", symbol, err)
		}

		if missing := days - count; missing > 0 {
			d.log.Warnf("%s: %d missing bars", symbol, missing)
		}
		if err := progressBar.Add(days); err != nil {
			d.log.Warnf("Failed to update progress bar: %s", err.Error())
		}

		files[symbol] = path
	}

	if err := progressBar.Close(); err != nil {
		d.log.Warnf("Failed to close progress bar: %s", err.Error())
	}

	d.log.Info("Done!")
	return files, nil
}

// downloadSymbol fetches one symbol's bars and writes them to path.
func (d Downloader) downloadSymbol(ctx context.Context, symbol, path string, params *DownloadParams) (int, error) {
	bars, err := d.source.DailyBars(ctx, symbol, params.Start, params.End)
	if err != nil {
		return 0, err
	}

	recordFile, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer recordFile.Close()

	writer := csv.NewWriter(recordFile)
	if err := writer.Write(downloadHeaders); err != nil {
		return 0, err
	}

	for _, bar := range bars {
		record := []string{
			bar.Date.Format(time.DateOnly),
			strconv.FormatFloat(bar.Close, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return 0, err
		}
	}

	writer.Flush()
	return len(bars), writer.Error()
}

// defaultDownloadParams covers the last month.
func defaultDownloadParams() *DownloadParams {
	now := time.Now()
	return &DownloadParams{
		Start: now.AddDate(0, -1, 0),
		End:   now,
	}
}

// normalizeDownloadParams aligns the range to day boundaries and keeps the
// end out of the future.
func normalizeDownloadParams(params *DownloadParams) {
	params.Start = time.Date(
		params.Start.Year(),
		params.Start.Month(),
		params.Start.Day(),
		0, 0, 0, 0, time.UTC,
	)

	now := time.Now()
	if now.Sub(params.End) > 0 {
		params.End = time.Date(
			params.End.Year(),
			params.End.Month(),
			params.End.Day(),
			0, 0, 0, 0, time.UTC,
		)
	} else {
		params.End = now
	}
}
