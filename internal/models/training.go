package models

import "time"

// TrainingRun records one retraining of the composition models
type TrainingRun struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	UserID           string    `gorm:"index" json:"user_id,omitempty"`
	Source           string    `gorm:"not null" json:"source"` // "upload", "corpus", "file"
	IntervalPatterns int       `json:"interval_patterns"`
	RhythmPatterns   int       `json:"rhythm_patterns"`
	ChordRows        int       `json:"chord_rows"`
	Motifs           int       `json:"motifs"`
	Skipped          int       `json:"skipped"`
	PitchStates      int       `json:"pitch_states"`
	DurationMS       int64     `json:"duration_ms"`
}

// Training sources
const (
	TrainingSourceUpload = "upload"
	TrainingSourceCorpus = "corpus"
	TrainingSourceFile   = "file"
)
