package domain

import "encoding/json"

// UploadedDocument is a document the driver has already submitted.
// Fields holds whatever extraction the backend performed; the client
// treats it as opaque display data.
type UploadedDocument struct {
	ID             int64
	DocType        string
	Filename       string
	StoredFilename string
	Fields         json.RawMessage
}

// BusinessProfile identifies the driver's business entity that expenses
// are recorded against.
type BusinessProfile struct {
	ID           int64
	Name         string
	BusinessCode string
	EIN          string
}
