package model

// Progress is a snapshot of batch progress.
//
// Snapshots are recomputed for every update and never mutated in place.
type Progress struct {
	Current int
	Total   int
	Percent int
}

// NewProgress computes a snapshot for current out of total units.
// An empty batch reports 100 percent.
func NewProgress(current, total int) Progress {
	percent := 100
	if total > 0 {
		percent = current * 100 / total
	}
	return Progress{Current: current, Total: total, Percent: percent}
}

// Stage is a step of the download state machine.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageNormalizing Stage = "normalizing"
	StageFetching    Stage = "fetching"
	StageAggregating Stage = "aggregating"
	StagePackaging   Stage = "packaging"
	StageSaving      Stage = "saving"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// String returns the string representation of Stage.
func (s Stage) String() string {
	return string(s)
}

// IsFinished returns true if the stage is terminal.
func (s Stage) IsFinished() bool {
	return s == StageDone || s == StageFailed
}
