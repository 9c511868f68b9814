package parquet

import (
	"fmt"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"

	"github.com/datazip-inc/olake-monday/utils"
)

var codecs = map[string]compress.Codec{
	"snappy":       &parquet.Snappy,
	"gzip":         &parquet.Gzip,
	"zstd":         &parquet.Zstd,
	"lz4":          &parquet.Lz4Raw,
	"none":         &parquet.Uncompressed,
	"uncompressed": &parquet.Uncompressed,
}

type Config struct {
	// Local directory, one sub directory per stream
	Path string `json:"local_path" validate:"required"`

	// Parquet file optimization settings, compression defaults to snappy
	Compression string `json:"compression,omitempty" validate:"omitempty,oneof=snappy gzip zstd lz4 none uncompressed" jsonschema:"enum=snappy,enum=gzip,enum=zstd,enum=lz4,enum=none,enum=uncompressed"`
	// rows per file before rolling over, 0 disables
	MaxRows int64 `json:"max_rows,omitempty" validate:"gte=0"`
}

func (c *Config) Validate() error {
	if err := utils.Validate(c); err != nil {
		return err
	}
	if _, found := codecs[c.codecName()]; !found {
		return fmt.Errorf("invalid compression codec: %s", c.Compression)
	}
	return nil
}

func (c *Config) codecName() string {
	if c.Compression == "" {
		return "snappy"
	}
	return c.Compression
}

func (c *Config) codec() compress.Codec {
	return codecs[c.codecName()]
}
