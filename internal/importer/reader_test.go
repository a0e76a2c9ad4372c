package importer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
)

func TestReadCSV_SemicolonWithBOM(t *testing.T) {
	in := "\ufeffAño;Edad;Sexo;Dirección\n2024;31;F;Calle 5, 12\n2024;8;M;\n"
	tbl, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"Año", "Edad", "Sexo", "Dirección"}, tbl.Headers)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "Calle 5, 12", tbl.Rows[0][3])
}

func TestReadCSV_Comma(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("lat,lon\n4.08,-76.19\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"lat", "lon"}, tbl.Headers)
	assert.Equal(t, [][]string{{"4.08", "-76.19"}}, tbl.Rows)
	assert.Len(t, tbl.Preview(5), 1)
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("\n"))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestTemplate_HeadersAutoMapEveryField(t *testing.T) {
	raw, err := Template()
	require.NoError(t, err)

	tbl, err := ReadExcel(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Empty(t, tbl.Rows)

	m := AutoMap(tbl.Headers)
	assert.ElementsMatch(t, Fields(), m.Fields())
}

func TestReadExcel_Rows(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Año", "Edad"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{2024, 40}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{2025, 3}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	tbl, err := ReadExcel(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Año", "Edad"}, tbl.Headers)
	assert.Equal(t, [][]string{{"2024", "40"}, {"2025", "3"}}, tbl.Rows)
}

func TestReadFile_Dispatch(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "casos.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Edad\n3\n"), 0o600))
	tbl, err := ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"Edad"}, tbl.Headers)

	xlsPath := filepath.Join(dir, "casos.xls")
	require.NoError(t, os.WriteFile(xlsPath, []byte("x"), 0o600))
	_, err = ReadFile(xlsPath)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWriteResultReport(t *testing.T) {
	raw, err := WriteResultReport(models.ImportResult{
		Total: 3, Succeeded: 1, Failed: 2,
		Errors: []models.ImportRowError{
			{Row: 2, Field: "edad", Message: "valor numérico inválido: x"},
			{Row: 3, Message: "hospital desconocido"},
		},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Errores")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Fila", "Campo", "Mensaje"}, rows[0])
	assert.Equal(t, "2", rows[1][0])
	assert.Equal(t, "hospital desconocido", rows[2][2])

	summary, err := f.GetRows("Resumen")
	require.NoError(t, err)
	assert.Equal(t, []string{"Fallidos", "2"}, summary[2])
}
