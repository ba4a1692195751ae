package commands

import "github.com/doeshing/fieldx/internal/domain"

// History listing defaults
const (
	DefaultHistoryLimit       = domain.DefaultHistoryLimit
	DefaultHistorySearchLimit = domain.DefaultHistorySearchLimit
)

// Export formats
const (
	FormatJSONL = "jsonl"
	FormatXLSX  = "xlsx"
)

// Error messages
const (
	ErrDoctorServiceUnavailable = "doctor service unavailable"
	ErrKeyRequired              = "--key is required"
	ErrQueryRequired            = "--query required"
)

// Success messages
const (
	MsgConfigurationValid = "Configuration valid"
	MsgNoHistoryRecorded  = "No extractions archived yet."
	MsgArchiveDisabled    = "Note: the archive is disabled; set archive.enabled to true to record extractions."
	MsgInitCancelled      = "Init cancelled."
)
