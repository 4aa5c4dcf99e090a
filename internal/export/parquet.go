package export

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/KaramelBytes/datalens-cli/internal/typeinfer"
)

// Parquet encodes ds as a Snappy-compressed Parquet file. Int columns map
// to int64, float to float64, datetime to UTC microsecond timestamps and
// everything else to strings.
func Parquet(ds *typeinfer.Dataset) ([]byte, error) {
	if ds == nil || ds.NumColumns() == 0 {
		return nil, ErrNoDataset
	}
	cols := ds.Columns()
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		fields[i] = arrow.Field{Name: c.Name, Type: arrowType(c.Storage), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	mem := memory.NewGoAllocator()
	rb := array.NewRecordBuilder(mem, schema)
	defer rb.Release()
	for j, c := range cols {
		if err := appendColumn(rb.Field(j), c); err != nil {
			return nil, err
		}
	}
	rec := rb.NewRecord()
	defer rec.Release()

	var buf bytes.Buffer
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	w, err := pqarrow.NewFileWriter(schema, &buf, props, pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		return nil, fmt.Errorf("create parquet writer: %w", err)
	}
	if err := w.Write(rec); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("write parquet record: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

func arrowType(s typeinfer.Storage) arrow.DataType {
	switch s {
	case typeinfer.StorageInt:
		return arrow.PrimitiveTypes.Int64
	case typeinfer.StorageFloat:
		return arrow.PrimitiveTypes.Float64
	case typeinfer.StorageDatetime:
		return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}
	default:
		return arrow.BinaryTypes.String
	}
}

func appendColumn(b array.Builder, c *typeinfer.Column) error {
	for _, v := range c.Values {
		if v.IsMissing() {
			b.AppendNull()
			continue
		}
		switch fb := b.(type) {
		case *array.Int64Builder:
			f, _ := v.Float()
			fb.Append(int64(f))
		case *array.Float64Builder:
			f, _ := v.Float()
			fb.Append(f)
		case *array.TimestampBuilder:
			t, ok := v.Time()
			if !ok {
				fb.AppendNull()
				continue
			}
			fb.Append(arrow.Timestamp(t.UnixMicro()))
		case *array.StringBuilder:
			fb.Append(v.String())
		default:
			return fmt.Errorf("column %q: unsupported arrow builder %T", c.Name, b)
		}
	}
	return nil
}
