package export

import (
	"bytes"
	"encoding/csv"
	"io"
	"slices"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/framestats/internal/libs/serializer"
	"github.com/hyp3rd/framestats/internal/sentinel"
)

// FormatCSV is the only format not handled by a serializer.
const FormatCSV = "csv"

// Formats lists the supported export formats, sorted.
func Formats() []string {
	registry := serializer.NewSerializerRegistry()

	formats := []string{FormatCSV}
	for _, name := range registry.Names() {
		if name != "default" {
			formats = append(formats, name)
		}
	}

	slices.Sort(formats)

	return formats
}

// ContentType returns the media type of an export format.
func ContentType(format string) string {
	switch format {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case "json":
		return "application/json"
	case "msgpack":
		return "application/msgpack"
	case "cbor":
		return "application/cbor"
	}

	return "application/octet-stream"
}

// WriteCSV writes the records of t to w.
func WriteCSV(w io.Writer, t Table) error {
	writer := csv.NewWriter(w)

	err := writer.WriteAll(t.Records())
	if err != nil {
		return ewrap.Wrap(err, "failed to write csv")
	}

	return nil
}

// Encode renders t in the given format.
func Encode(format string, t Table) ([]byte, error) {
	if format == FormatCSV {
		var buf bytes.Buffer

		err := WriteCSV(&buf, t)
		if err != nil {
			return nil, err
		}

		return buf.Bytes(), nil
	}

	if !slices.Contains(Formats(), format) {
		return nil, ewrap.Wrapf(sentinel.ErrSerializerNotFound, "export format %q", format)
	}

	ser, err := serializer.New(format)
	if err != nil {
		return nil, err
	}

	return ser.Marshal(t)
}

// Write renders t in the given format to w.
func Write(w io.Writer, format string, t Table) error {
	data, err := Encode(format, t)
	if err != nil {
		return err
	}

	_, err = w.Write(data)
	if err != nil {
		return ewrap.Wrap(err, "failed to write export")
	}

	return nil
}

// EncodeAll renders several tables in one document: CSV tables follow each other, the
// other formats encode the list.
func EncodeAll(format string, tables []Table) ([]byte, error) {
	if format != FormatCSV {
		if !slices.Contains(Formats(), format) {
			return nil, ewrap.Wrapf(sentinel.ErrSerializerNotFound, "export format %q", format)
		}

		ser, err := serializer.New(format)
		if err != nil {
			return nil, err
		}

		return ser.Marshal(tables)
	}

	var buf bytes.Buffer

	for _, table := range tables {
		err := WriteCSV(&buf, table)
		if err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}
