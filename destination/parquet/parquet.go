package parquet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/parquet-go/parquet-go"

	"github.com/datazip-inc/olake-monday/constants"
	"github.com/datazip-inc/olake-monday/destination"
	"github.com/datazip-inc/olake-monday/drivers/abstract"
	"github.com/datazip-inc/olake-monday/types"
	"github.com/datazip-inc/olake-monday/utils"
	"github.com/datazip-inc/olake-monday/utils/logger"
)

var olakeColumns = map[string]types.DataType{
	constants.OlakeID:        types.String,
	constants.OlakeTimestamp: types.Int64,
}

type column struct {
	name string
	typ  types.DataType
}

// Parquet writes the records of one stream into local parquet files, one
// optional column per top level schema property
type Parquet struct {
	config  *Config
	options *destination.Options
	stream  *abstract.StreamDefinition
	schema  *parquet.Schema
	columns []column

	file     *os.File
	writer   *parquet.GenericWriter[any]
	rows     int64
	basePath string
	files    []string
}

func (p *Parquet) GetConfigRef() destination.Config {
	p.config = &Config{}
	return p.config
}

func (p *Parquet) Spec() any {
	return Config{}
}

func (p *Parquet) Type() string {
	return string(types.Parquet)
}

// Check validates the config and makes sure the local path is writable
func (p *Parquet) Check(_ context.Context) error {
	if err := p.config.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(p.config.Path, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create local path: %s", err)
	}
	return nil
}

// Setup derives the parquet schema of the stream; files are created lazily on the first record
func (p *Parquet) Setup(stream *abstract.StreamDefinition, options *destination.Options) error {
	if stream.Schema == nil {
		return fmt.Errorf("stream[%s] has no schema", stream.ID)
	}

	p.options = options
	p.stream = stream
	p.basePath = filepath.Join(p.config.Path, stream.ID)
	p.schema = stream.Schema.ToParquet(stream.ID, olakeColumns)

	// column indexes follow the leaf order of the schema
	p.columns = p.columns[:0]
	for _, path := range p.schema.Columns() {
		name := path[0]
		typ, found := olakeColumns[name]
		if !found {
			typ = stream.Schema.Properties[name].DataType()
		}
		p.columns = append(p.columns, column{name: name, typ: typ})
	}

	return nil
}

func (p *Parquet) createNewFile() error {
	if err := os.MkdirAll(p.basePath, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directories[%s]: %s", p.basePath, err)
	}

	filePath := filepath.Join(p.basePath, utils.TimestampedFileName(constants.ParquetFileExt))
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create parquet file[%s]: %s", filePath, err)
	}

	p.file = file
	p.writer = parquet.NewGenericWriter[any](file, p.schema, parquet.Compression(p.config.codec()))
	p.rows = 0
	p.files = append(p.files, filePath)
	logger.Debugf("Thread[%d]: created parquet file[%s] for stream[%s]", p.threadNumber(), filePath, p.stream.ID)
	return nil
}

// Write converts the record to a parquet row, rolling over to a new file once max_rows is reached
func (p *Parquet) Write(_ context.Context, record types.Record) error {
	if p.stream == nil {
		return fmt.Errorf("parquet writer used before setup")
	}

	if p.writer != nil && p.config.MaxRows > 0 && p.rows >= p.config.MaxRows {
		if err := p.closeFile(); err != nil {
			return err
		}
	}
	if p.writer == nil {
		if err := p.createNewFile(); err != nil {
			return err
		}
	}

	row, err := p.toRow(record)
	if err != nil {
		return err
	}
	if _, err := p.writer.WriteRows([]parquet.Row{row}); err != nil {
		return fmt.Errorf("failed to write record of stream[%s]: %s", p.stream.ID, err)
	}
	p.rows++
	return nil
}

func (p *Parquet) toRow(record types.Record) (parquet.Row, error) {
	row := make(parquet.Row, 0, len(p.columns))
	for idx, col := range p.columns {
		var value any
		switch col.name {
		case constants.OlakeID:
			value = utils.GetKeysHash(record, p.stream.KeyProperties...)
		case constants.OlakeTimestamp:
			value = time.Now().UnixMilli()
		default:
			converted, err := coerce(col.typ, record, col.name)
			if err != nil {
				return nil, fmt.Errorf("stream[%s] column[%s]: %s", p.stream.ID, col.name, err)
			}
			value = converted
		}

		if value == nil {
			row = append(row, parquet.NullValue().Level(0, 0, idx))
			continue
		}
		row = append(row, parquet.ValueOf(value).Level(0, 1, idx))
	}
	return row, nil
}

// coerce converts a decoded json value to the go type of its parquet column
func coerce(typ types.DataType, record types.Record, key string) (any, error) {
	value := record[key]
	if value == nil {
		return nil, nil
	}

	switch typ {
	case types.Int64:
		switch v := value.(type) {
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		case float64:
			return int64(v), nil
		case json.Number:
			return v.Int64()
		case string:
			return strconv.ParseInt(v, 10, 64)
		}
	case types.Float64:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int64:
			return float64(v), nil
		case int:
			return float64(v), nil
		case json.Number:
			return v.Float64()
		case string:
			return strconv.ParseFloat(v, 64)
		}
	case types.Bool:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			return strconv.ParseBool(v)
		}
	default:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return record.GetStringifiedJSONValue(key)
	}

	return nil, fmt.Errorf("cannot convert %T to %s", value, typ)
}

func (p *Parquet) closeFile() error {
	if p.writer == nil {
		return nil
	}

	err := utils.ErrExecSequential(
		utils.ErrExecFormat("failed to close parquet writer: %s", p.writer.Close),
		utils.ErrExecFormat("failed to close parquet file: %s", p.file.Close),
	)
	logger.Debugf("Thread[%d]: closed parquet file[%s] with %d rows", p.threadNumber(), p.file.Name(), p.rows)
	p.writer = nil
	p.file = nil
	return err
}

// Close flushes the open file; a writer that never received records has nothing to close
func (p *Parquet) Close(_ context.Context) error {
	return p.closeFile()
}

func (p *Parquet) threadNumber() int64 {
	if p.options == nil {
		return 0
	}
	return p.options.Number
}

func init() {
	destination.RegisteredWriters[types.Parquet] = func() destination.Writer {
		return new(Parquet)
	}
}
