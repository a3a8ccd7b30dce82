package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/avlasenko/taxikit/internal/domain"
)

type uploadedDocumentDTO struct {
	ID             int64           `json:"id"`
	DocType        string          `json:"doc_type"`
	Filename       string          `json:"filename"`
	StoredFilename string          `json:"stored_filename"`
	Fields         json.RawMessage `json:"fields_json"`
}

// UploadDocument submits one file against a checklist document code.
// An empty file is rejected locally with ErrEmptyFile before any request
// goes out.
func (c *Client) UploadDocument(ctx context.Context, driverID int64, year int, documentCode, filename string, file io.Reader) error {
	path := fmt.Sprintf("/api/v1/documents/upload/%d?year=%d&doc_type=%s",
		driverID, year, url.QueryEscape(documentCode))
	return c.postMultipart(ctx, path, filename, file, nil)
}

// DocumentsByDriver lists everything the driver has uploaded so far.
func (c *Client) DocumentsByDriver(ctx context.Context, driverID int64) ([]domain.UploadedDocument, error) {
	var dtos []uploadedDocumentDTO
	path := fmt.Sprintf("/api/v1/documents/by-driver/%d", driverID)
	if err := c.getJSON(ctx, path, &dtos); err != nil {
		return nil, err
	}
	docs := make([]domain.UploadedDocument, 0, len(dtos))
	for _, d := range dtos {
		docs = append(docs, domain.UploadedDocument{
			ID:             d.ID,
			DocType:        d.DocType,
			Filename:       d.Filename,
			StoredFilename: d.StoredFilename,
			Fields:         d.Fields,
		})
	}
	return docs, nil
}
