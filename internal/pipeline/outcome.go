package pipeline

import (
	"errors"
	"fmt"
)

// Stage names a pipeline step.
type Stage string

const (
	StageUpload      Stage = "upload"
	StageResult      Stage = "result"
	StageVideoSearch Stage = "video_search"
)

// Status is how a stage ended.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// StageReport records one attempted stage.
type StageReport struct {
	Stage  Stage  `json:"stage"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
	err    error
}

// Err returns the stage error, if any.
func (s StageReport) Err() error {
	return s.err
}

// Outcome lists the stages a run attempted, in order. Stages that were not
// reached are absent. Stale is set when a newer upload superseded the run and
// its remaining results were discarded.
type Outcome struct {
	Generation uint64        `json:"generation"`
	Stages     []StageReport `json:"stages"`
	Stale      bool          `json:"stale,omitempty"`
}

func (o *Outcome) add(stage Stage, status Status, err error) {
	r := StageReport{Stage: stage, Status: status, err: err}
	if err != nil {
		r.Error = err.Error()
	}
	o.Stages = append(o.Stages, r)
}

// Stage returns the result for s and whether it was attempted.
func (o *Outcome) Stage(s Stage) (StageReport, bool) {
	for _, r := range o.Stages {
		if r.Stage == s {
			return r, true
		}
	}
	return StageReport{}, false
}

// Err joins the errors of failed stages, or returns nil.
func (o *Outcome) Err() error {
	var errs []error
	for _, r := range o.Stages {
		if r.Status == StatusFailed {
			errs = append(errs, fmt.Errorf("%s: %w", r.Stage, r.err))
		}
	}
	return errors.Join(errs...)
}
