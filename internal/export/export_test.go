package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/cleaning"
	"github.com/KaramelBytes/datalens-cli/internal/insights"
	"github.com/KaramelBytes/datalens-cli/internal/loader"
	"github.com/KaramelBytes/datalens-cli/internal/typeinfer"
)

func sampleDataset(t *testing.T) *typeinfer.Dataset {
	t.Helper()
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	ds, err := typeinfer.NewDataset(
		&typeinfer.Column{Name: "units", Storage: typeinfer.StorageInt, Values: []typeinfer.Value{typeinfer.Num(3), typeinfer.Missing(), typeinfer.Num(7)}},
		&typeinfer.Column{Name: "price", Storage: typeinfer.StorageFloat, Values: []typeinfer.Value{typeinfer.Num(1.5), typeinfer.Num(2.25), typeinfer.Num(-4)}},
		&typeinfer.Column{Name: "day", Storage: typeinfer.StorageDatetime, Values: []typeinfer.Value{typeinfer.Timestamp(day), typeinfer.Timestamp(day.AddDate(0, 0, 1)), typeinfer.Missing()}},
		typeinfer.NewObjectColumn("note", []string{"a, quoted", "", "plain"}),
	)
	require.NoError(t, err)
	return ds
}

func sampleBundle(t *testing.T) *Bundle {
	ds := sampleDataset(t)
	log := &cleaning.Log{Entries: []cleaning.Entry{{Column: "units", Action: "filled", Detail: "1 missing value with mean 5"}}}
	return &Bundle{
		Report:   analysis.Profile(ds, analysis.DefaultOptions()),
		Cleaning: log,
		Insight:  &insights.Insight{Model: "llama-3.1-8b-instant", Text: "Prices went negative once."},
		Dataset:  ds,
		Created:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMarkdownSections(t *testing.T) {
	md := sampleBundle(t).Markdown()
	assert.True(t, strings.HasPrefix(md, "# Data Analysis Report"))
	assert.Contains(t, md, "_Generated 2024-06-01T12:00:00Z_")
	assert.Contains(t, md, "[CLEANING LOG]\n- filled 'units': 1 missing value with mean 5")
	assert.Contains(t, md, "[AI INSIGHTS]")
	assert.Contains(t, md, "Prices went negative once.")
}

func TestMarkdownOmitsAbsentSections(t *testing.T) {
	md := (&Bundle{Title: "Only title"}).Markdown()
	assert.Equal(t, "# Only title\n\n", md)
}

func TestTextReport(t *testing.T) {
	txt := sampleBundle(t).Text()
	assert.Contains(t, txt, "Number of rows: 3")
	assert.Contains(t, txt, "Number of columns: 4")
	assert.Contains(t, txt, "Column Information:")
	assert.Contains(t, txt, "AI Insights (llama-3.1-8b-instant):")
	assert.NotContains(t, txt, "|---")
}

func TestCSVEncodesMissingAsEmpty(t *testing.T) {
	out, err := CSV(sampleDataset(t))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "units,price,day,note", lines[0])
	assert.Equal(t, `3,1.5,2024-05-01,"a, quoted"`, lines[1])
	assert.Equal(t, ",2.25,2024-05-02,", lines[2])
}

func TestWriteRejectsUnknownFormat(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "out.png"), sampleBundle(t))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	err = Write(filepath.Join(t.TempDir(), "out.csv"), &Bundle{})
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestWriteCreatesDirectories(t *testing.T) {
	p := filepath.Join(t.TempDir(), "reports", "nested", "report.md")
	require.NoError(t, Write(p, sampleBundle(t)))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), "[CLEANING LOG]")
	_, err = os.Stat(p + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestParquetRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "clean.parquet")
	require.NoError(t, Write(p, sampleBundle(t)))

	res, err := loader.Load(p, loader.DefaultOptions())
	require.NoError(t, err)
	ds := res.Dataset
	require.Equal(t, 3, ds.Rows())
	assert.Equal(t, []string{"units", "price", "day", "note"}, ds.Names())

	units, _ := ds.Column("units")
	assert.Equal(t, typeinfer.Numeric, typeinfer.InferType(units))
	assert.True(t, units.Values[1].IsMissing())
	v, _ := units.Values[2].Float()
	assert.Equal(t, 7.0, v)

	day, _ := ds.Column("day")
	assert.Equal(t, typeinfer.Datetime, typeinfer.InferType(day))
	ts, ok := day.Values[1].Time()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), ts)
	assert.True(t, day.Values[2].IsMissing())

	note, _ := ds.Column("note")
	assert.True(t, note.Values[1].IsMissing())
}
