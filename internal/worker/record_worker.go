// Package worker handles record.created events: it archives the record's
// PDF report and appends a line to the spreadsheet ledger.
package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"maintrack/internal/amqp"
	"maintrack/internal/core"
	"maintrack/internal/export"
	"maintrack/internal/metrics"
	"maintrack/internal/objectstore"
	"maintrack/internal/ports"
	"maintrack/internal/sheets"
)

type RecordWorker struct {
	// mu serializes the ledger check with the append so the consumer and
	// Reconcile never log the same record twice.
	mu sync.Mutex

	records ports.RecordStore
	objects ports.ObjectStore
	ledger  sheets.LedgerWriter
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewRecordWorker wires the worker. ledger may be nil when no spreadsheet
// is configured.
func NewRecordWorker(records ports.RecordStore, objects ports.ObjectStore, ledger sheets.LedgerWriter, m *metrics.Metrics) *RecordWorker {
	return &RecordWorker{records: records, objects: objects, ledger: ledger, metrics: m, now: time.Now}
}

// HandleRecordCreated is the amqp.Handler for record.created. A record that
// no longer exists is dropped; any other failure is returned so the
// message is requeued.
func (w *RecordWorker) HandleRecordCreated(ctx context.Context, msg *amqp.RecordCreatedMessage) error {
	slog.InfoContext(ctx, "Processing record.created", "record_id", msg.RecordID, "period", msg.Period().Label())

	rec, err := w.records.GetRecord(ctx, msg.RecordID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Record vanished before processing, dropping", "record_id", msg.RecordID)
			w.metrics.EventHandled("dropped")
			return nil
		}
		w.metrics.EventHandled("retry")
		return fmt.Errorf("load record: %w", err)
	}

	appended, err := w.process(ctx, rec)
	if err != nil {
		w.metrics.EventHandled("retry")
		return err
	}
	if !appended && w.ledger != nil {
		slog.InfoContext(ctx, "Record already in ledger, skipping", "record_id", rec.ID)
		w.metrics.EventHandled("duplicate")
		return nil
	}
	w.metrics.EventHandled("ok")
	return nil
}

// process archives the report and appends the ledger row unless the ledger
// already holds one for rec. It reports whether a row was appended.
func (w *RecordWorker) process(ctx context.Context, rec core.MaintenanceRecord) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	logged, err := w.inLedger(ctx, rec)
	if err != nil {
		return false, err
	}
	if logged {
		return false, nil
	}

	url, err := w.archive(ctx, rec)
	if err != nil {
		return false, err
	}
	if w.ledger == nil {
		return false, nil
	}
	ref, err := w.ledger.AppendLedgerRow(ctx, sheets.RowFromRecord(rec, url, w.now()))
	if err != nil {
		return false, fmt.Errorf("append ledger row: %w", err)
	}
	slog.InfoContext(ctx, "Ledger row appended", "record_id", rec.ID, "ref", ref)
	return true, nil
}

// inLedger is false when the ledger cannot be read back.
func (w *RecordWorker) inLedger(ctx context.Context, rec core.MaintenanceRecord) (bool, error) {
	reader, ok := w.ledger.(sheets.LedgerReader)
	if !ok {
		return false, nil
	}
	rows, err := reader.ListLedger(ctx, rec.Period.Year)
	if err != nil {
		return false, fmt.Errorf("read ledger: %w", err)
	}
	for _, r := range rows {
		if r.RecordID == rec.ID {
			return true, nil
		}
	}
	return false, nil
}

// archive renders the PDF report and stores it; the returned URL is empty
// when no object store is configured.
func (w *RecordWorker) archive(ctx context.Context, rec core.MaintenanceRecord) (string, error) {
	if w.objects == nil {
		return "", nil
	}
	r, err := export.ForFormat("pdf")
	if err != nil {
		return "", err
	}
	doc, err := r.Render(rec)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	name := objectstore.ReportName(export.Filename(rec, r.Extension()))
	url, err := w.objects.Put(ctx, name, r.ContentType(), bytes.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("store report: %w", err)
	}
	slog.InfoContext(ctx, "Report archived", "record_id", rec.ID, "url", url)
	return url, nil
}

// Reconcile appends ledger rows for records of the given year that are
// missing from the ledger, in case events were lost. It is a no-op when
// the ledger cannot be read back.
func (w *RecordWorker) Reconcile(ctx context.Context, year int) (int, error) {
	reader, ok := w.ledger.(sheets.LedgerReader)
	if !ok || w.ledger == nil {
		return 0, nil
	}
	rows, err := reader.ListLedger(ctx, year)
	if err != nil {
		return 0, fmt.Errorf("read ledger: %w", err)
	}
	logged := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		logged[r.RecordID] = struct{}{}
	}

	records, err := w.records.ListRecords(ctx, year, 0)
	if err != nil {
		return 0, fmt.Errorf("list records: %w", err)
	}
	n := 0
	for _, rec := range records {
		if _, ok := logged[rec.ID]; ok {
			continue
		}
		appended, err := w.process(ctx, rec)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to reconcile record", "record_id", rec.ID, "error", err)
			continue
		}
		if appended {
			n++
		}
	}
	if n > 0 {
		slog.InfoContext(ctx, "Reconciled ledger", "year", year, "appended", n)
	}
	return n, nil
}

// ReconcileRecent reconciles the current year and, during January, the
// previous one as well.
func (w *RecordWorker) ReconcileRecent(ctx context.Context) (int, error) {
	now := w.now()
	years := []int{now.Year()}
	if now.Month() == time.January {
		years = append(years, now.Year()-1)
	}
	total := 0
	for _, y := range years {
		n, err := w.Reconcile(ctx, y)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
