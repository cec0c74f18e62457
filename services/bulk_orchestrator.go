package services

import (
	"context"
	"time"

	"construction-tracking-api/config"
	"construction-tracking-api/models"
	"construction-tracking-api/store"

	"github.com/sirupsen/logrus"
)

// BulkOperation applies one state transition to one record.
type BulkOperation func(ctx context.Context, rec models.KPIRecord) OpResult

// BulkOptions tunes a bulk run. Zero values fall back to the defaults.
type BulkOptions struct {
	// PageSize is the chunked-fetch page size against the store.
	PageSize int
	// BatchSize is the number of items processed between progress reports and
	// delays. Intentionally smaller than PageSize to stay under store-side
	// request-size limits.
	BatchSize int
	// BatchDelay is slept between batches so a long bulk run does not
	// overwhelm the backing store.
	BatchDelay time.Duration
	// Progress, when set, is called after every batch with the number of
	// items processed so far.
	Progress func(processed int)
	// Filter, when set, narrows the fetched scope client-side after
	// normalization. The store query can only express one OR group, so
	// fields whose legacy aliases cannot ride that group are matched here.
	// Rows failing the filter are skipped without being counted.
	Filter func(rec models.KPIRecord) bool
}

// BulkResult reports a finished (or cancelled) bulk run. Failed holds record
// ids only; a failure to fetch the scope itself is reported in FetchError.
type BulkResult struct {
	Processed  int      `json:"processed"`
	Succeeded  int      `json:"succeeded"`
	Failed     []string `json:"failed,omitempty"`
	FetchError string   `json:"fetch_error,omitempty"`
	Cancelled  bool     `json:"cancelled,omitempty"`
}

const (
	defaultBulkPageSize  = fetchPageSize
	defaultBulkBatchSize = 50
	defaultBatchDelay    = 100 * time.Millisecond
)

// BulkOrchestrator drives a state transition over large result sets in
// bounded pages. Items are applied sequentially within a batch; one item's
// failure is recorded and skipped, never aborting the run.
type BulkOrchestrator struct {
	table store.Table
	log   *logrus.Logger
}

func NewBulkOrchestrator(table store.Table, logger *logrus.Logger) *BulkOrchestrator {
	if table == nil {
		table = store.NewGormTable(config.DB, store.TableKPIRecords)
	}
	if logger == nil {
		logger = config.GetLogger()
	}
	return &BulkOrchestrator{table: table, log: logger}
}

// Apply resolves the scope by chunked fetch, looping until a short page: a
// single unpaginated query against a large store cannot be trusted. It runs
// op over every matching row. Cancellation is checked between batches only:
// an in-flight transition is never interrupted mid-way, since that could
// leave a record in neither store.
func (o *BulkOrchestrator) Apply(ctx context.Context, scope store.Query, op BulkOperation, opts BulkOptions) BulkResult {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultBulkPageSize
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBulkBatchSize
	}
	delay := opts.BatchDelay
	if delay <= 0 {
		delay = defaultBatchDelay
	}

	var result BulkResult
	for offset := 0; ; offset += pageSize {
		q := scope
		q.Offset = offset
		q.Limit = pageSize
		page, err := o.table.Select(ctx, q)
		if err != nil {
			// The whole page is unreachable; report the fetch failure once
			// and stop rather than looping forever.
			o.log.WithError(err).Error("bulk scope fetch failed")
			result.FetchError = err.Error()
			return result
		}

		for start := 0; start < len(page); start += batchSize {
			if err := ctx.Err(); err != nil {
				result.Cancelled = true
				return result
			}

			end := start + batchSize
			if end > len(page) {
				end = len(page)
			}
			for _, raw := range page[start:end] {
				rec := NormalizeKPIRecord(raw)
				if opts.Filter != nil && !opts.Filter(rec) {
					continue
				}
				res := op(ctx, rec)
				result.Processed++
				if res.Success {
					result.Succeeded++
				} else {
					id := rec.ID
					if id == "" {
						id = "unknown"
					}
					result.Failed = append(result.Failed, id)
					o.log.WithFields(logrus.Fields{
						"kpi_id":  id,
						"message": res.Message,
					}).Warn("bulk item failed")
				}
			}

			if opts.Progress != nil {
				opts.Progress(result.Processed)
			}
			if end < len(page) || len(page) == pageSize {
				time.Sleep(delay)
			}
		}

		if len(page) < pageSize {
			return result
		}
	}
}
