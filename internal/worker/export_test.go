package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mtlprog/walletboard/internal/tokens"
)

type mockSource struct {
	seq atomic.Uint64
}

func (m *mockSource) Current() tokens.Snapshot {
	return tokens.Snapshot{Seq: m.seq.Load()}
}

type mockExporter struct {
	exported []uint64
	err      error
}

func (m *mockExporter) Export(_ context.Context, snap tokens.Snapshot) error {
	if m.err != nil {
		return m.err
	}
	m.exported = append(m.exported, snap.Seq)
	return nil
}

func TestExportSkipsUnchanged(t *testing.T) {
	src := &mockSource{}
	exp := &mockExporter{}
	w := NewExportWorker(src, exp, time.Minute)
	ctx := context.Background()

	w.export(ctx) // seq 0: pipeline not started
	src.seq.Store(1)
	w.export(ctx)
	w.export(ctx)
	src.seq.Store(3)
	w.export(ctx)

	if len(exp.exported) != 2 || exp.exported[0] != 1 || exp.exported[1] != 3 {
		t.Errorf("exported = %v, want [1 3]", exp.exported)
	}
}

func TestExportRetriesAfterFailure(t *testing.T) {
	src := &mockSource{}
	src.seq.Store(5)
	exp := &mockExporter{err: errors.New("quota exceeded")}
	w := NewExportWorker(src, exp, time.Minute)

	w.export(context.Background())
	exp.err = nil
	w.export(context.Background())

	if len(exp.exported) != 1 || exp.exported[0] != 5 {
		t.Errorf("exported = %v, want [5]", exp.exported)
	}
}

func TestExportWorkerRunsAndShutdown(t *testing.T) {
	src := &mockSource{}
	src.seq.Store(1)
	exp := &mockExporter{}
	w := NewExportWorker(src, exp, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if len(exp.exported) != 1 {
		t.Errorf("exported = %v, want a single export of an unchanged snapshot", exp.exported)
	}
}
