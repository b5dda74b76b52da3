package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&AwacsInfo{},
	&Session{},
	&JournalEntry{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// AwacsInfo identifies the instance that owns the database
type AwacsInfo struct {
	gorm.Model
	ClientName  string `json:"clientName" gorm:"size:127"`
	Description string `json:"description" gorm:"size:255"`
}

func (*AwacsInfo) TableName() string {
	return "awacs_infos"
}

// Session is one run of the controller, from startup to shutdown
type Session struct {
	ID            uint       `json:"id" gorm:"primarykey;autoIncrement;"`
	StartedAt     time.Time  `json:"startedAt" gorm:"index:idx_session_started_at"`
	EndedAt       *time.Time `json:"endedAt"`
	MissionTitle  string     `json:"missionTitle" gorm:"size:255"`
	ReferenceTime string     `json:"referenceTime" gorm:"size:64"`
}

func (*Session) TableName() string {
	return "sessions"
}

////////////////////////
// JOURNAL
////////////////////////

// JournalEntry is one persisted recent-log line: an unsolicited call, a
// radio command or its reply.
type JournalEntry struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_journal_session_id"`
	Session   Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Time      time.Time `json:"time" gorm:"index:idx_journal_time"`
	SimTime   float64   `json:"simTime"`
	Kind      string    `json:"kind" gorm:"size:16;index:idx_journal_kind"`
	Text      string    `json:"text"`
	EntityID  string    `json:"entityId" gorm:"size:32"`
	// Position is a WKT POINT in the entity's own frame, empty when unknown
	Position string         `json:"position" gorm:"size:128"`
	Frame    string         `json:"frame" gorm:"size:4"`
	Meta     datatypes.JSON `json:"meta"`
}

func (*JournalEntry) TableName() string {
	return "journal_entries"
}
