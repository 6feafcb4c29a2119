package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/mtlprog/walletboard/internal/tokens"
)

// SnapshotSource provides the current token list.
type SnapshotSource interface {
	Current() tokens.Snapshot
}

// Exporter writes a snapshot somewhere outside the process.
type Exporter interface {
	Export(ctx context.Context, snap tokens.Snapshot) error
}

// ExportWorker periodically exports the token list, skipping runs where
// nothing changed since the last successful export.
type ExportWorker struct {
	source   SnapshotSource
	exporter Exporter
	interval time.Duration

	lastSeq uint64
}

// NewExportWorker creates a new ExportWorker.
func NewExportWorker(source SnapshotSource, exporter Exporter, interval time.Duration) *ExportWorker {
	if source == nil || exporter == nil {
		panic("worker.NewExportWorker: nil dependency")
	}
	return &ExportWorker{source: source, exporter: exporter, interval: interval}
}

func (w *ExportWorker) export(ctx context.Context) {
	snap := w.source.Current()
	if snap.Seq == 0 || snap.Seq == w.lastSeq {
		slog.Debug("ExportWorker: nothing new to export", "seq", snap.Seq)
		return
	}
	if err := w.exporter.Export(ctx, snap); err != nil {
		slog.Error("ExportWorker: export failed", "seq", snap.Seq, "error", err)
		return
	}
	w.lastSeq = snap.Seq
	slog.Info("ExportWorker: export completed", "seq", snap.Seq, "rows", len(snap.Rows))
}

// Run starts the export loop. It blocks until the context is cancelled.
func (w *ExportWorker) Run(ctx context.Context) {
	slog.Info("ExportWorker: starting", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("ExportWorker: shutting down")
			return
		case <-ticker.C:
			w.export(ctx)
		}
	}
}
