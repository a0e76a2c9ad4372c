package feature

import (
	"context"
	"errors"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/importer"
	"github.com/Tom21-xd/Uceva-sub002/internal/models"
	"github.com/Tom21-xd/Uceva-sub002/internal/state"
)

// ImportRunner submits a mapped table (importer.Importer).
type ImportRunner interface {
	Run(ctx context.Context, fileName string, t *importer.Table, m importer.Mapping) (models.ImportResult, error)
}

// ErrNoFile Submit was called before a file was opened.
var ErrNoFile = errors.New("no import file opened")

// ImportFlowState snapshot of the import wizard: pick file, detect columns,
// adjust the mapping, submit.
type ImportFlowState struct {
	FileName string
	Table    *importer.Table
	Headers  []string
	Preview  [][]string
	Mapping  importer.Mapping
	Result   state.Resource[models.ImportResult]
	OpenErr  string
}

var importResultLens = state.Lens[ImportFlowState, models.ImportResult]{
	Get: func(s ImportFlowState) state.Resource[models.ImportResult] { return s.Result },
	Set: func(s ImportFlowState, r state.Resource[models.ImportResult]) ImportFlowState { s.Result = r; return s },
}

// ImportFlow case file import.
type ImportFlow struct {
	holder[ImportFlowState]
	runner      ImportRunner
	previewRows int
}

func NewImportFlow(parent context.Context, runner ImportRunner, previewRows int, logger *zap.Logger) *ImportFlow {
	return &ImportFlow{
		holder:      newHolder(parent, ImportFlowState{}, logger, "import"),
		runner:      runner,
		previewRows: previewRows,
	}
}

// Open reads the file and proposes a column mapping.
func (f *ImportFlow) Open(path string) error {
	t, err := importer.ReadFile(path)
	if err != nil {
		f.logger.Error("Failed to read import file", zap.String("path", path), zap.Error(err))
		f.store.Update(func(s ImportFlowState) ImportFlowState {
			s.OpenErr = err.Error()
			return s
		})
		return err
	}
	f.OpenTable(filepath.Base(path), t)
	return nil
}

// OpenTable starts the flow from an already parsed table.
func (f *ImportFlow) OpenTable(fileName string, t *importer.Table) {
	m := importer.AutoMap(t.Headers)
	f.logger.Info("Columns detected",
		zap.String("file", fileName),
		zap.Int("columns", len(t.Headers)),
		zap.Strings("mapped", m.Fields()),
	)
	f.store.Update(func(s ImportFlowState) ImportFlowState {
		s.FileName = fileName
		s.Table = t
		s.Headers = t.Headers
		s.Preview = t.Preview(f.previewRows)
		s.Mapping = m
		s.Result = state.Resource[models.ImportResult]{Busy: s.Result.Busy}
		s.OpenErr = ""
		return s
	})
}

// Override adjusts the proposed mapping; an empty column unmaps the field.
func (f *ImportFlow) Override(field, column string) {
	f.store.Update(func(s ImportFlowState) ImportFlowState {
		m := s.Mapping.Clone()
		m.Override(field, column)
		s.Mapping = m
		return s
	})
}

// Submit imports the rows under the confirmed mapping.
func (f *ImportFlow) Submit(ctx context.Context) (models.ImportResult, error) {
	s := f.State()
	if s.Table == nil {
		return models.ImportResult{}, ErrNoFile
	}
	t, m := s.Table, s.Mapping.Clone()
	if err := load(ctx, f.holder, importResultLens, "import", func(ctx context.Context) (models.ImportResult, error) {
		return f.runner.Run(ctx, s.FileName, t, m)
	}, nil); err != nil {
		return models.ImportResult{}, err
	}
	return f.State().Result.Data, nil
}
