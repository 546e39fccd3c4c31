package dto

import "time"

type ExportOutput struct {
	ExportedAt    time.Time
	SchemaVersion int
	Events        int
	// Data is the indented JSON payload.
	Data []byte
}

type ImportInput struct {
	Data []byte
}

type ImportOutput struct {
	Imported   int
	Rejected   int
	Duplicates int
	Truncated  int
}

type LastErrorOutput struct {
	TS      string
	Type    string
	Message string
}

type DumpOutput struct {
	SchemaVersion   int
	Events          int
	ActiveSessionID string
	LastError       *LastErrorOutput
	SizeKB          float64
	Data            []byte
}
