package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/synaptica-ai/order-etl/pkg/pipeline"
)

var (
	runsSucceeded   atomic.Int64
	runsFailed      atomic.Int64
	rowsPublished   atomic.Int64
	bytesPublished  atomic.Int64
	failuresByStage = newStageCounters()
)

func newStageCounters() map[pipeline.Stage]*atomic.Int64 {
	counters := make(map[pipeline.Stage]*atomic.Int64, len(pipeline.FailureStages))
	for _, stage := range pipeline.FailureStages {
		counters[stage] = new(atomic.Int64)
	}
	return counters
}

func ObserveSuccess(rows, bytes int) {
	runsSucceeded.Add(1)
	rowsPublished.Add(int64(rows))
	bytesPublished.Add(int64(bytes))
}

// ObserveFailure counts a failed run. Stages outside pipeline.FailureStages
// only count towards the total.
func ObserveFailure(stage pipeline.Stage) {
	runsFailed.Add(1)
	if c, ok := failuresByStage[stage]; ok {
		c.Add(1)
	}
}

type Snapshot struct {
	RunsSucceeded   int64
	RunsFailed      int64
	RowsPublished   int64
	BytesPublished  int64
	FailuresByStage map[pipeline.Stage]int64
}

func Current() Snapshot {
	byStage := make(map[pipeline.Stage]int64, len(failuresByStage))
	for stage, c := range failuresByStage {
		byStage[stage] = c.Load()
	}
	return Snapshot{
		RunsSucceeded:   runsSucceeded.Load(),
		RunsFailed:      runsFailed.Load(),
		RowsPublished:   rowsPublished.Load(),
		BytesPublished:  bytesPublished.Load(),
		FailuresByStage: byStage,
	}
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP order_etl_runs_succeeded_total Order batches published and announced to the catalog.\n")
	fmt.Fprintf(w, "# TYPE order_etl_runs_succeeded_total counter\n")
	fmt.Fprintf(w, "order_etl_runs_succeeded_total %d\n", runsSucceeded.Load())

	fmt.Fprintf(w, "# HELP order_etl_runs_failed_total Order batch runs that failed.\n")
	fmt.Fprintf(w, "# TYPE order_etl_runs_failed_total counter\n")
	fmt.Fprintf(w, "order_etl_runs_failed_total %d\n", runsFailed.Load())

	fmt.Fprintf(w, "# HELP order_etl_runs_failed_by_stage_total Failed runs by the stage that failed.\n")
	fmt.Fprintf(w, "# TYPE order_etl_runs_failed_by_stage_total counter\n")
	for _, stage := range pipeline.FailureStages {
		fmt.Fprintf(w, "order_etl_runs_failed_by_stage_total{stage=%q} %d\n", stage, failuresByStage[stage].Load())
	}

	fmt.Fprintf(w, "# HELP order_etl_rows_published_total Flattened medicine rows written.\n")
	fmt.Fprintf(w, "# TYPE order_etl_rows_published_total counter\n")
	fmt.Fprintf(w, "order_etl_rows_published_total %d\n", rowsPublished.Load())

	fmt.Fprintf(w, "# HELP order_etl_bytes_published_total Parquet bytes written.\n")
	fmt.Fprintf(w, "# TYPE order_etl_bytes_published_total counter\n")
	fmt.Fprintf(w, "order_etl_bytes_published_total %d\n", bytesPublished.Load())
}
