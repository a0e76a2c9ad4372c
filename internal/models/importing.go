package models

// ImportRowError one rejected row. Row is 1-based over data rows (header excluded).
type ImportRowError struct {
	Row     int    `json:"fila"`
	Field   string `json:"campo,omitempty"`
	Message string `json:"mensaje"`
}

// ImportResult outcome of a case import; partial success is normal.
type ImportResult struct {
	Total     int              `json:"totalRegistros"`
	Succeeded int              `json:"exitosos"`
	Failed    int              `json:"fallidos"`
	Errors    []ImportRowError `json:"errores"`
}

// Merge folds client-side row errors into a backend result.
// Rows rejected locally never reached the backend, so they add to Total and Failed.
func (r *ImportResult) Merge(local []ImportRowError) {
	if len(local) == 0 {
		return
	}
	rows := make(map[int]struct{}, len(local))
	for _, e := range local {
		rows[e.Row] = struct{}{}
	}
	r.Total += len(rows)
	r.Failed += len(rows)
	merged := make([]ImportRowError, 0, len(local)+len(r.Errors))
	merged = append(merged, local...)
	r.Errors = append(merged, r.Errors...)
}

// ImportRowsRequest body of POST /CaseImport/rows
type ImportRowsRequest struct {
	FileName string              `json:"nombreArchivo"`
	Rows     []map[string]string `json:"filas"`
}

// Envelope response wrapper used by some endpoints ({success, message, data}).
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}
