package entities

import "time"

// SnapshotVersion is the schema version of persisted session snapshots.
// Snapshots written with another version are ignored on load.
const SnapshotVersion = 1

// Snapshot is the durable state of one session, enough to resume it after
// the client reloads.
type Snapshot struct {
	Version      int        `json:"version"`
	SessionID    string     `json:"session_id"`
	QuizType     QuizType   `json:"quiz_type"`
	Filter       Filter     `json:"filter"`
	Questions    []Question `json:"questions"` // shuffled options baked in
	FreshShuffle bool       `json:"fresh_shuffle"`
	CreatedAt    time.Time  `json:"created_at"`
	Progress     *Progress  `json:"progress,omitempty"`
}

// Resumable reports whether the snapshot holds an attempt that should be
// resumed with the same question order instead of being reshuffled.
func (s *Snapshot) Resumable() bool {
	return s != nil && len(s.Questions) > 0 && s.Progress.InProgress()
}
