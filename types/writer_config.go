package types

type DestinationType string

const (
	Singer  DestinationType = "SINGER"
	Parquet DestinationType = "PARQUET"
)

// WriterConfig is the destination file: a writer type and its own config
type WriterConfig struct {
	Type         DestinationType `json:"type"`
	WriterConfig any             `json:"writer"`
}
