package filebased

import (
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hamba/avro/v2/ocf"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/types"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/utils"
)

// RemoteFile is a file matched by stream globs
type RemoteFile struct {
	URI          string
	LastModified time.Time
}

// StreamReader lists and opens files of a file based source
type StreamReader interface {
	// GetMatchingFiles returns files matching any of globs ordered by uri
	GetMatchingFiles(globs []string) ([]RemoteFile, error)
	Open(file RemoteFile) (io.ReadCloser, error)
}

// InMemoryFile is a file content kept in memory.
// Contents is either raw []byte / string or structured data that is serialized according to file type:
// rows ([][]any) for csv, objects ([]map[string]any) for jsonl and avro
type InMemoryFile struct {
	Contents     any       `mapstructure:"contents"`
	LastModified time.Time `mapstructure:"last_modified"`
	// AvroSchema is required to serialize structured contents as avro
	AvroSchema string `mapstructure:"avro_schema"`
}

// FileWriteOptions controls serialization of structured in-memory contents
type FileWriteOptions struct {
	Delimiter string `mapstructure:"delimiter"`
}

// InMemoryStreamReader serves files from memory
type InMemoryStreamReader struct {
	files        map[string]InMemoryFile
	fileType     string
	writeOptions FileWriteOptions
}

func NewInMemoryStreamReader(files map[string]InMemoryFile, fileType string, writeOptions FileWriteOptions) *InMemoryStreamReader {
	return &InMemoryStreamReader{files: files, fileType: fileType, writeOptions: writeOptions}
}

func (r *InMemoryStreamReader) GetMatchingFiles(globs []string) ([]RemoteFile, error) {
	res := make([]RemoteFile, 0)
	for uri, file := range r.files {
		matched, err := matchAny(globs, uri)
		if err != nil {
			return nil, err
		}
		if matched {
			res = append(res, RemoteFile{URI: uri, LastModified: file.LastModified})
		}
	}
	sortFiles(res)
	return res, nil
}

func (r *InMemoryStreamReader) Open(file RemoteFile) (io.ReadCloser, error) {
	f, ok := r.files[file.URI]
	if !ok {
		return nil, FileReadError.New("file not found: %s", file.URI)
	}
	payload, err := r.serialize(file.URI, f)
	if err != nil {
		return nil, FileReadError.Wrap(err, "failed to serialize in-memory file %s", file.URI)
	}
	if isGzip(file.URI) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err = gz.Write(payload); err != nil {
			return nil, err
		}
		if err = gz.Close(); err != nil {
			return nil, err
		}
		payload = buf.Bytes()
	}
	return decompress(file.URI, io.NopCloser(bytes.NewReader(payload)))
}

func (r *InMemoryStreamReader) serialize(uri string, f InMemoryFile) ([]byte, error) {
	switch c := f.Contents.(type) {
	case nil:
		return nil, nil
	case []byte:
		return c, nil
	case string:
		return []byte(c), nil
	}
	switch r.fileType {
	case FileTypeCSV:
		return r.serializeCSV(f.Contents)
	case FileTypeJSONL:
		return serializeJSONL(f.Contents)
	case FileTypeAvro:
		return serializeAvro(f)
	default:
		return nil, fmt.Errorf("can't serialize contents of %s as %s", uri, r.fileType)
	}
}

func (r *InMemoryStreamReader) serializeCSV(contents any) ([]byte, error) {
	normalized, err := utils.NormalizeJSON(contents)
	if err != nil {
		return nil, err
	}
	rows, ok := normalized.([]any)
	if !ok {
		return nil, fmt.Errorf("csv contents must be a list of rows, got: %T", contents)
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if r.writeOptions.Delimiter != "" {
		w.Comma = []rune(r.writeOptions.Delimiter)[0]
	}
	for i, row := range rows {
		values, ok := row.([]any)
		if !ok {
			return nil, fmt.Errorf("csv row #%d must be a list, got: %T", i, row)
		}
		if err = w.Write(utils.ArrayMap(values, csvValue)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func csvValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func serializeJSONL(contents any) ([]byte, error) {
	normalized, err := utils.NormalizeJSON(contents)
	if err != nil {
		return nil, err
	}
	objects, ok := normalized.([]any)
	if !ok {
		return nil, fmt.Errorf("jsonl contents must be a list of objects, got: %T", contents)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, obj := range objects {
		if err = enc.Encode(obj); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func serializeAvro(f InMemoryFile) ([]byte, error) {
	if f.AvroSchema == "" {
		return nil, fmt.Errorf("avro_schema is required to serialize avro contents")
	}
	var objects []map[string]any
	switch c := f.Contents.(type) {
	case []map[string]any:
		objects = c
	case []any:
		for i, o := range c {
			obj, ok := o.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("avro object #%d must be a map, got: %T", i, o)
			}
			objects = append(objects, obj)
		}
	default:
		return nil, fmt.Errorf("avro contents must be a list of objects, got: %T", f.Contents)
	}
	var buf bytes.Buffer
	enc, err := ocf.NewEncoder(f.AvroSchema, &buf)
	if err != nil {
		return nil, err
	}
	for _, obj := range objects {
		if err = enc.Encode(obj); err != nil {
			return nil, err
		}
	}
	if err = enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LocalStreamReader serves files of local directory. File uri is a slash separated path relative to Root
type LocalStreamReader struct {
	Root string
}

func (r *LocalStreamReader) GetMatchingFiles(globs []string) ([]RemoteFile, error) {
	fsys := os.DirFS(r.Root)
	uris := types.NewSet[string]()
	for _, g := range globs {
		matches, err := doublestar.Glob(fsys, g, doublestar.WithFilesOnly())
		if err != nil {
			return nil, FileReadError.Wrap(err, "failed to match glob %s in %s", g, r.Root)
		}
		uris.PutAll(matches)
	}
	res := make([]RemoteFile, 0, uris.Size())
	for _, uri := range uris.ToSlice() {
		info, err := fs.Stat(fsys, uri)
		if err != nil {
			return nil, FileReadError.Wrap(err, "failed to stat %s", uri)
		}
		res = append(res, RemoteFile{URI: uri, LastModified: info.ModTime().UTC()})
	}
	sortFiles(res)
	return res, nil
}

func (r *LocalStreamReader) Open(file RemoteFile) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(r.Root, filepath.FromSlash(file.URI)))
	if err != nil {
		return nil, FileReadError.Wrap(err, "failed to open %s", file.URI)
	}
	return decompress(file.URI, f)
}

func matchAny(globs []string, uri string) (bool, error) {
	for _, g := range globs {
		matched, err := doublestar.Match(g, uri)
		if err != nil {
			return false, ConfigValidationError.Wrap(err, "invalid glob: %s", g)
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

func sortFiles(files []RemoteFile) {
	sort.Slice(files, func(i, j int) bool {
		return files[i].URI < files[j].URI
	})
}

func isGzip(uri string) bool {
	return strings.HasSuffix(strings.ToLower(uri), ".gz")
}

type gzipReadCloser struct {
	*gzip.Reader
	underlying io.Closer
}

func (g gzipReadCloser) Close() error {
	_ = g.Reader.Close()
	return g.underlying.Close()
}

// decompress wraps gzip compressed files with decompressing reader
func decompress(uri string, rc io.ReadCloser) (io.ReadCloser, error) {
	if !isGzip(uri) {
		return rc, nil
	}
	gz, err := gzip.NewReader(rc)
	if err != nil {
		_ = rc.Close()
		return nil, FileReadError.Wrap(err, "failed to open gzip file %s", uri)
	}
	return gzipReadCloser{Reader: gz, underlying: rc}, nil
}
