package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
)

// ImportService /CaseImport
type ImportService struct{ c *Client }

func NewImportService(c *Client) *ImportService { return &ImportService{c: c} }

// UploadFile sends the raw file plus the confirmed column mapping (field -> header).
func (s *ImportService) UploadFile(ctx context.Context, fileName string, r io.Reader, mapping map[string]string) (models.ImportResult, error) {
	raw, err := json.Marshal(mapping)
	if err != nil {
		return models.ImportResult{}, err
	}
	req := Request{
		Method:   http.MethodPost,
		Path:     "/CaseImport/upload",
		Upload:   &Upload{Field: "archivo", FileName: fileName, Reader: r},
		FormData: map[string]string{"mapeo": string(raw)},
	}
	return DoEnvelope[models.ImportResult](ctx, s.c, req)
}

// UploadRows sends already-mapped rows (field -> value).
func (s *ImportService) UploadRows(ctx context.Context, req models.ImportRowsRequest) (models.ImportResult, error) {
	return DoEnvelope[models.ImportResult](ctx, s.c, Post("/CaseImport/rows", req))
}
