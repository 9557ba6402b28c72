package training

import (
	"fmt"
	"time"
)

// Windows fixes the temporal layout of one training run. Features are
// computed only from purchases inside the train window; the label is
// whether the pair converted inside the later target window. The gap
// between the two is what keeps the model from peeking at its own label.
type Windows struct {
	TargetStart time.Time `json:"target_start"`
	TargetEnd   time.Time `json:"target_end"`
	TrainStart  time.Time `json:"train_window_start"`
	TrainEnd    time.Time `json:"train_window_end"`
}

const (
	targetSpanDays = 6
	trainGapDays   = 7
	trainSpanDays  = 35
)

// DeriveWindows anchors both windows to the newest transaction date D:
// target [D-6d, D], train [D-35d, D-7d].
func DeriveWindows(maxDate time.Time) Windows {
	return Windows{
		TargetStart: maxDate.AddDate(0, 0, -targetSpanDays),
		TargetEnd:   maxDate,
		TrainStart:  maxDate.AddDate(0, 0, -trainSpanDays),
		TrainEnd:    maxDate.AddDate(0, 0, -trainGapDays),
	}
}

func (w Windows) String() string {
	return fmt.Sprintf("train [%s, %s] target [%s, %s]",
		w.TrainStart.Format("2006-01-02"), w.TrainEnd.Format("2006-01-02"),
		w.TargetStart.Format("2006-01-02"), w.TargetEnd.Format("2006-01-02"))
}
