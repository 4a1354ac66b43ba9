package auditdb

import "time"

// RunSummary is one row per engine run.
type RunSummary struct {
	ID         uint      `gorm:"primaryKey"`
	RunID      string    `gorm:"size:32;index"`
	Unit       string    `gorm:"size:64;index"`
	Mode       string    `gorm:"size:16"`
	StartedAt  time.Time `gorm:"index"`
	FinishedAt time.Time
	LocalRows  int
	RemoteRows int
	Creates    int
	Updates    int
	Skips      int
	Conflicts  int
	Applied    int
	Failed     int
	Duplicates int
	Aborted    bool
	Error      string `gorm:"type:text"`
}

func (RunSummary) TableName() string { return "run_summaries" }

// ChangeDetail is one row per decided field change or conflict.
type ChangeDetail struct {
	ID       uint   `gorm:"primaryKey"`
	RunID    string `gorm:"size:32;index"`
	Unit     string `gorm:"size:64"`
	Action   string `gorm:"size:16"`
	SyncKey  string `gorm:"size:255;index"`
	Target   string `gorm:"size:16"`
	Field    string `gorm:"size:255"`
	OldValue string `gorm:"type:text"`
	NewValue string `gorm:"type:text"`
	Reason   string `gorm:"size:255"`
}

func (ChangeDetail) TableName() string { return "change_details" }
