package filebased

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/hamba/avro/v2/ocf"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/types"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/utils"
)

const (
	maxRecordsForInference = 1000
	maxJSONLineSize        = 10 * 1024 * 1024
)

var errEnoughRecords = errors.New("enough records")

// FileTypeParser parses files of a single file type
type FileTypeParser interface {
	// InferSchema returns json types of record fields found in file
	InferSchema(format FormatConfig, r io.Reader) (map[string]string, error)
	// ParseRecords calls emit for every record of the file
	ParseRecords(format FormatConfig, r io.Reader, emit func(record map[string]any) error) error
}

// DefaultParsers returns new map of parsers for supported file types
func DefaultParsers() map[string]FileTypeParser {
	return map[string]FileTypeParser{
		FileTypeCSV:   &CSVParser{},
		FileTypeJSONL: &JSONLParser{},
		FileTypeAvro:  &AvroParser{},
	}
}

type CSVParser struct{}

// InferSchema of csv file: every column is a string
func (p *CSVParser) InferSchema(format FormatConfig, r io.Reader) (map[string]string, error) {
	cr := p.reader(format, r)
	if err := p.skipRows(cr, format); err != nil {
		return nil, err
	}
	header, err := p.header(cr, format)
	if err != nil {
		return nil, err
	}
	if header == nil {
		row, err := cr.Read()
		if err == io.EOF {
			return map[string]string{}, nil
		} else if err != nil {
			return nil, RecordParseError.Wrap(err, "failed to parse csv")
		}
		header = autogeneratedColumns(len(row))
	}
	res := make(map[string]string, len(header))
	for _, h := range header {
		res[h] = "string"
	}
	return res, nil
}

func (p *CSVParser) ParseRecords(format FormatConfig, r io.Reader, emit func(record map[string]any) error) error {
	cr := p.reader(format, r)
	if err := p.skipRows(cr, format); err != nil {
		return err
	}
	header, err := p.header(cr, format)
	if err != nil {
		return err
	}
	nulls := types.NewSet(format.NullValues...)
	for rowNum := 1; ; rowNum++ {
		row, err := cr.Read()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return RecordParseError.Wrap(err, "failed to parse csv row #%d", rowNum)
		}
		if header == nil {
			header = autogeneratedColumns(len(row))
		}
		if len(row) != len(header) {
			return RecordParseError.New("csv row #%d has %d values while header has %d columns", rowNum, len(row), len(header))
		}
		record := make(map[string]any, len(header))
		for i, h := range header {
			if nulls.Contains(row[i]) {
				record[h] = nil
			} else {
				record[h] = row[i]
			}
		}
		if err = emit(record); err != nil {
			return err
		}
	}
}

func (p *CSVParser) reader(format FormatConfig, r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	if format.Delimiter != "" {
		cr.Comma = []rune(format.Delimiter)[0]
	}
	cr.FieldsPerRecord = -1
	return cr
}

func (p *CSVParser) skipRows(cr *csv.Reader, format FormatConfig) error {
	for i := 0; i < format.SkipRowsBeforeHeader; i++ {
		if _, err := cr.Read(); err == io.EOF {
			return nil
		} else if err != nil {
			return RecordParseError.Wrap(err, "failed to skip csv row #%d", i+1)
		}
	}
	return nil
}

// header returns nil when column names are autogenerated
func (p *CSVParser) header(cr *csv.Reader, format FormatConfig) ([]string, error) {
	if format.AutogenerateColumnNames {
		return nil, nil
	}
	header, err := cr.Read()
	if err == io.EOF {
		return []string{}, nil
	} else if err != nil {
		return nil, RecordParseError.Wrap(err, "failed to parse csv header")
	}
	if dups := utils.ArrayDuplicates(header); len(dups) > 0 {
		return nil, RecordParseError.New("csv header has duplicate columns: %v", dups)
	}
	return header, nil
}

func autogeneratedColumns(n int) []string {
	cols := make([]string, n)
	for i := range cols {
		cols[i] = fmt.Sprintf("f%d", i)
	}
	return cols
}

// JSONLParser parses newline delimited json objects
type JSONLParser struct{}

func (p *JSONLParser) InferSchema(format FormatConfig, r io.Reader) (map[string]string, error) {
	return inferFromRecords(p, format, r)
}

func (p *JSONLParser) ParseRecords(format FormatConfig, r io.Reader, emit func(record map[string]any) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxJSONLineSize)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		record := map[string]any{}
		if err := json.Unmarshal(line, &record); err != nil {
			return RecordParseError.Wrap(err, "line %d is not a valid json object: %s", lineNum,
				utils.ShortenStringWithEllipsis(string(line), 100))
		}
		if err := emit(record); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return RecordParseError.Wrap(err, "failed to read jsonl")
	}
	return nil
}

// AvroParser parses avro object container files
type AvroParser struct{}

func (p *AvroParser) InferSchema(format FormatConfig, r io.Reader) (map[string]string, error) {
	return inferFromRecords(p, format, r)
}

func (p *AvroParser) ParseRecords(format FormatConfig, r io.Reader, emit func(record map[string]any) error) error {
	dec, err := ocf.NewDecoder(r)
	if err != nil {
		return RecordParseError.Wrap(err, "failed to open avro file")
	}
	for dec.HasNext() {
		record := map[string]any{}
		if err = dec.Decode(&record); err != nil {
			return RecordParseError.Wrap(err, "failed to decode avro record")
		}
		if err = emit(record); err != nil {
			return err
		}
	}
	if err = dec.Error(); err != nil {
		return RecordParseError.Wrap(err, "failed to read avro file")
	}
	return nil
}

func inferFromRecords(parser FileTypeParser, format FormatConfig, r io.Reader) (map[string]string, error) {
	res := map[string]string{}
	n := 0
	err := parser.ParseRecords(format, r, func(record map[string]any) error {
		if err := mergeRecordTypes(res, record); err != nil {
			return err
		}
		n++
		if n >= maxRecordsForInference {
			return errEnoughRecords
		}
		return nil
	})
	if err != nil && !errors.Is(err, errEnoughRecords) {
		return nil, err
	}
	return res, nil
}
