package models

import "time"

// Attachment download status constants
const (
	AttachmentStatusPending   = "PENDING"
	AttachmentStatusCompleted = "COMPLETED"
	AttachmentStatusFailed    = "FAILED"
	AttachmentStatusAbandoned = "ABANDONED"
)

// AttachmentIntent is a request to download one record's attachment
type AttachmentIntent struct {
	Type     RecordType
	RecordID string
	// BaseName is the unsanitized desired filename without extension,
	// normally the record's reference number
	BaseName string
}

// ResourcePath returns the API path of the attachment, e.g. "bills/42/attachment"
func (i AttachmentIntent) ResourcePath() string {
	return i.Type.Collection() + "/" + i.RecordID + "/attachment"
}

// AttachmentFile describes a downloaded attachment written to disk
type AttachmentFile struct {
	Intent       AttachmentIntent
	FilePath     string
	MimeType     string
	Size         int64
	DownloadedAt time.Time
}
