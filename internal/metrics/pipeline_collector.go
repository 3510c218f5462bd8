package metrics

import (
	"time"
)

// PipelineCollector records pipeline runs as Prometheus metrics.
type PipelineCollector struct {
	engine string
}

func NewPipelineCollector(engine string) *PipelineCollector {
	return &PipelineCollector{engine: engine}
}

func (c *PipelineCollector) JobStarted(jobID string) {
	JobsInFlight.Inc()
}

func (c *PipelineCollector) StageCompleted(jobID, stage string, duration time.Duration) {
	RecordJobStage(c.engine, stage, duration.Seconds())
}

// JobFinished is called once per run; outcome is "success" or an error code.
func (c *PipelineCollector) JobFinished(jobID, outcome string, duration time.Duration) {
	JobsInFlight.Dec()
	RecordJobProcessed(c.engine, outcome, duration.Seconds())
}

func (c *PipelineCollector) PreviewGenerated(jobID string, ok bool) {
	RecordPreview(ok)
}

func (c *PipelineCollector) StagingCleaned(jobID string, removed, missing, failed int) {
	RecordCleanup(removed, missing, failed)
}
