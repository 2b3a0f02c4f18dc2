package session

import (
	"time"

	"github.com/goodtune/bacrevise/internal/curriculum"
)

// DefaultTargetMinutes is the revision block length used when no target is
// configured.
const DefaultTargetMinutes = 25

// DefaultTickInterval is how often an active session recomputes its duration.
const DefaultTickInterval = time.Second

// RevisionSession is the persisted timer record.
type RevisionSession struct {
	ID        string             `json:"id"`
	Active    bool               `json:"active"`
	StartTime *time.Time         `json:"startTime"`
	Duration  int64              `json:"duration"` // seconds
	Goal      string             `json:"goal"`
	Subject   curriculum.Subject `json:"subject"`
}

// Idle returns the record of a store with no running session.
func Idle() RevisionSession {
	return RevisionSession{Subject: curriculum.All}
}

func (r RevisionSession) clone() RevisionSession {
	if r.StartTime != nil {
		start := *r.StartTime
		r.StartTime = &start
	}
	return r
}

// elapsedSeconds floors now-start to whole seconds. A clock that moved
// backwards yields 0.
func elapsedSeconds(start, now time.Time) int64 {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}
