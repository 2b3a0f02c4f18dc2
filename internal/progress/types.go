package progress

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/goodtune/bacrevise/internal/curriculum"
)

// MaxActivities bounds the lastActivity list.
const MaxActivities = 10

// DefaultRecentLimit is used by RecentActivities when no limit is given.
const DefaultRecentLimit = 5

// ChapterProgress records a student's visits to one chapter.
type ChapterProgress struct {
	ID          string    `json:"id"`
	Completed   bool      `json:"completed"`
	LastVisited time.Time `json:"lastVisited"`
	TimeSpent   int64     `json:"timeSpent"` // seconds
}

// QuizProgress records attempts at one quiz. Score is the best score over
// all attempts.
type QuizProgress struct {
	ID          string    `json:"id"`
	Completed   bool      `json:"completed"`
	Score       int       `json:"score"`
	Attempts    int       `json:"attempts"`
	LastAttempt time.Time `json:"lastAttempt"`
}

// SubjectProgress aggregates chapters and quizzes of one subject.
type SubjectProgress struct {
	ID               curriculum.Subject         `json:"id"`
	ChaptersProgress map[string]ChapterProgress `json:"chaptersProgress"`
	QuizzesProgress  map[string]QuizProgress    `json:"quizzesProgress"`

	// OverallProgress is round(100 × completed / chapters seen).
	OverallProgress int `json:"overallProgress"`
}

// ActivityType tells which kind of record an Activity points at.
type ActivityType string

const (
	ActivityChapter ActivityType = "chapter"
	ActivityQuiz    ActivityType = "quiz"
)

// Activity is one entry of the recent activity feed.
type Activity struct {
	Type      ActivityType       `json:"type"`
	ID        string             `json:"id"`
	SubjectID curriculum.Subject `json:"subjectId"`
	Timestamp time.Time          `json:"timestamp"`
}

// UserProgress is the persisted root document.
type UserProgress struct {
	Subjects       map[curriculum.Subject]*SubjectProgress `json:"subjects"`
	TotalTimeSpent int64                                   `json:"totalTimeSpent"` // seconds
	LastActivity   []Activity                              `json:"lastActivity"`
}

// UnmarshalJSON decodes subject keys leniently: a key that names no known
// subject is dropped instead of failing the whole document.
func (up *UserProgress) UnmarshalJSON(data []byte) error {
	type document UserProgress
	aux := struct {
		Subjects map[string]json.RawMessage `json:"subjects"`
		*document
	}{document: (*document)(up)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	up.Subjects = nil
	if aux.Subjects == nil {
		return nil
	}
	up.Subjects = make(map[curriculum.Subject]*SubjectProgress, len(aux.Subjects))
	for key, raw := range aux.Subjects {
		id, err := curriculum.Parse(key)
		if err != nil {
			continue
		}
		sp := &SubjectProgress{}
		if err := json.Unmarshal(raw, sp); err != nil {
			return fmt.Errorf("subject %s: %w", key, err)
		}
		up.Subjects[id] = sp
	}
	return nil
}

// ChapterUpdate is a partial chapter record. Nil fields keep their
// current value.
type ChapterUpdate struct {
	Completed *bool
	TimeSpent *int64
}

// Bool returns a pointer to v, for building a ChapterUpdate.
func Bool(v bool) *bool { return &v }

// Seconds returns a pointer to v, for building a ChapterUpdate.
func Seconds(v int64) *int64 { return &v }

// NewUserProgress returns the default document: every subject present at 0%.
func NewUserProgress() *UserProgress {
	up := &UserProgress{
		Subjects:     make(map[curriculum.Subject]*SubjectProgress),
		LastActivity: []Activity{},
	}
	for _, s := range curriculum.Subjects() {
		up.Subjects[s] = newSubjectProgress(s)
	}
	return up
}

func newSubjectProgress(s curriculum.Subject) *SubjectProgress {
	return &SubjectProgress{
		ID:               s,
		ChaptersProgress: make(map[string]ChapterProgress),
		QuizzesProgress:  make(map[string]QuizProgress),
	}
}

// Clone returns a deep copy.
func (up *UserProgress) Clone() *UserProgress {
	out := &UserProgress{
		Subjects:       make(map[curriculum.Subject]*SubjectProgress, len(up.Subjects)),
		TotalTimeSpent: up.TotalTimeSpent,
		LastActivity:   append([]Activity{}, up.LastActivity...),
	}
	for id, sp := range up.Subjects {
		out.Subjects[id] = sp.clone()
	}
	return out
}

func (sp *SubjectProgress) clone() *SubjectProgress {
	out := &SubjectProgress{
		ID:               sp.ID,
		ChaptersProgress: make(map[string]ChapterProgress, len(sp.ChaptersProgress)),
		QuizzesProgress:  make(map[string]QuizProgress, len(sp.QuizzesProgress)),
		OverallProgress:  sp.OverallProgress,
	}
	for k, v := range sp.ChaptersProgress {
		out.ChaptersProgress[k] = v
	}
	for k, v := range sp.QuizzesProgress {
		out.QuizzesProgress[k] = v
	}
	return out
}

// CompletedChapters counts chapters marked completed.
func (sp *SubjectProgress) CompletedChapters() int {
	n := 0
	for _, ch := range sp.ChaptersProgress {
		if ch.Completed {
			n++
		}
	}
	return n
}

// recompute refreshes OverallProgress from the chapters seen so far.
func (sp *SubjectProgress) recompute() {
	seen := len(sp.ChaptersProgress)
	if seen == 0 {
		sp.OverallProgress = 0
		return
	}
	sp.OverallProgress = percent(sp.CompletedChapters(), seen)
}

// percent returns round(100 × part / whole), rounding halves up.
func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return (200*part + whole) / (2 * whole)
}
