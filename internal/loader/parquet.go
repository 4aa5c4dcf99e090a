package loader

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/KaramelBytes/datalens-cli/internal/typeinfer"
)

type parquetReader struct{}

func (parquetReader) CanRead(p string) bool {
	return strings.HasSuffix(strings.ToLower(p), ".parquet")
}

// Read loads a Parquet file through Arrow. Columns come back already typed:
// Arrow numeric and temporal types keep their storage, dictionary-encoded
// columns become categorical, and everything else is read as open/generic text.
func (parquetReader) Read(p string, opt Options) (*Table, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f)
	if err != nil {
		return nil, fmt.Errorf("create parquet reader: %w", err)
	}
	defer pf.Close()

	mem := memory.NewGoAllocator()
	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("create arrow reader: %w", err)
	}
	table, err := fr.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("read parquet data: %w", err)
	}
	defer table.Release()

	fields := table.Schema().Fields()
	cols := make([]*typeinfer.Column, len(fields))
	names := make([]string, len(fields))
	for i, fld := range fields {
		names[i] = fld.Name
	}
	names = uniqueNames(names)
	for i, fld := range fields {
		cols[i] = &typeinfer.Column{Name: names[i], Storage: storageFor(fld.Type)}
	}

	limit := int(table.NumRows())
	if opt.MaxRows > 0 && opt.MaxRows < limit {
		limit = opt.MaxRows
	}
	tr := array.NewTableReader(table, 64*1024)
	defer tr.Release()
	read := 0
	for tr.Next() && read < limit {
		rec := tr.Record()
		n := int(rec.NumRows())
		if read+n > limit {
			n = limit - read
		}
		for j := range cols {
			col := rec.Column(j)
			for i := 0; i < n; i++ {
				cols[j].Values = append(cols[j].Values, arrowValue(col, i))
			}
		}
		read += n
	}
	if err := tr.Err(); err != nil {
		return nil, fmt.Errorf("iterate parquet records: %w", err)
	}
	return &Table{Columns: cols, TotalRows: int(table.NumRows())}, nil
}

func storageFor(dt arrow.DataType) typeinfer.Storage {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return typeinfer.StorageInt
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64, arrow.DECIMAL128:
		return typeinfer.StorageFloat
	case arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64:
		return typeinfer.StorageDatetime
	case arrow.DICTIONARY:
		return typeinfer.StorageCategorical
	default:
		return typeinfer.StorageObject
	}
}

func arrowValue(col arrow.Array, i int) typeinfer.Value {
	if col.IsNull(i) {
		return typeinfer.Missing()
	}
	switch a := col.(type) {
	case *array.Int8:
		return typeinfer.Num(float64(a.Value(i)))
	case *array.Int16:
		return typeinfer.Num(float64(a.Value(i)))
	case *array.Int32:
		return typeinfer.Num(float64(a.Value(i)))
	case *array.Int64:
		return typeinfer.Num(float64(a.Value(i)))
	case *array.Uint8:
		return typeinfer.Num(float64(a.Value(i)))
	case *array.Uint16:
		return typeinfer.Num(float64(a.Value(i)))
	case *array.Uint32:
		return typeinfer.Num(float64(a.Value(i)))
	case *array.Uint64:
		return typeinfer.Num(float64(a.Value(i)))
	case *array.Float32:
		return typeinfer.Num(float64(a.Value(i)))
	case *array.Float64:
		return typeinfer.Num(a.Value(i))
	case *array.String:
		return typeinfer.Str(a.Value(i))
	case *array.LargeString:
		return typeinfer.Str(a.Value(i))
	case *array.Boolean:
		if a.Value(i) {
			return typeinfer.Str("True")
		}
		return typeinfer.Str("False")
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return typeinfer.Timestamp(a.Value(i).ToTime(unit))
	case *array.Date32:
		return typeinfer.Timestamp(a.Value(i).ToTime())
	case *array.Date64:
		return typeinfer.Timestamp(a.Value(i).ToTime())
	case *array.Dictionary:
		return arrowValue(a.Dictionary(), a.GetValueIndex(i))
	}
	return typeinfer.Str(col.ValueStr(i))
}
