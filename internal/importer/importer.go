package importer

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
)

// ErrNoMapping nothing to import: no column is mapped to a field.
var ErrNoMapping = errors.New("no column is mapped to an import field")

// RowField carries the source row number so backend errors refer to the file.
const RowField = "fila"

// RowUploader backend side of an import (api.ImportService).
type RowUploader interface {
	UploadRows(ctx context.Context, req models.ImportRowsRequest) (models.ImportResult, error)
}

// Importer submits a mapped table and merges local and remote row failures.
type Importer struct {
	uploader RowUploader
	logger   *zap.Logger
}

func NewImporter(uploader RowUploader, logger *zap.Logger) *Importer {
	return &Importer{uploader: uploader, logger: logger}
}

// Run maps the table and uploads the valid rows. Rows rejected locally are
// reported in the result next to the backend's own rejections; only transport
// failures abort the batch.
func (im *Importer) Run(ctx context.Context, fileName string, t *Table, m Mapping) (models.ImportResult, error) {
	if len(m) == 0 {
		return models.ImportResult{}, ErrNoMapping
	}
	rows, numbers, local := m.Apply(t)
	for i, row := range rows {
		row[RowField] = strconv.Itoa(numbers[i])
	}

	im.logger.Info("Submitting case import",
		zap.String("file", fileName),
		zap.Int("rows", len(rows)),
		zap.Int("rejected_locally", len(local)),
		zap.Strings("fields", m.Fields()),
	)

	var res models.ImportResult
	if len(rows) > 0 {
		var err error
		res, err = im.uploader.UploadRows(ctx, models.ImportRowsRequest{FileName: fileName, Rows: rows})
		if err != nil {
			im.logger.Error("Case import upload failed", zap.String("file", fileName), zap.Error(err))
			return models.ImportResult{}, err
		}
	}
	res.Merge(local)

	im.logger.Info("Case import finished",
		zap.String("file", fileName),
		zap.Int("total", res.Total),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}
