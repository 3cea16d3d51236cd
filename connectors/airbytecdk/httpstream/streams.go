package httpstream

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	airbyte "github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk"
	"github.com/joomcode/errorx"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	Errors = errorx.NewNamespace("httpstream")

	// UnsupportedStream stream shape doesn't allow to install request dispatcher
	UnsupportedStream = Errors.NewType("unsupported_stream")
	// DispatcherMissing stream was used before dispatcher had been installed
	DispatcherMissing = Errors.NewType("dispatcher_missing")
	// ResponseParseError response body can't be parsed into records
	ResponseParseError = Errors.NewType("response_parse")
)

// Stream is a single stream of http based source
type Stream interface {
	Name() string
	// Describe returns catalog entry of the stream
	Describe() airbyte.Stream
	// ReadRecords reads all records of the stream
	ReadRecords() ([]map[string]any, error)
}

// ResponseParser extracts records from http response
type ResponseParser func(resp *http.Response) ([]map[string]any, error)

// HttpStream is a plain http backed stream. One request per read
type HttpStream struct {
	StreamName string
	Namespace  string
	URLBase    string
	Path       string
	// Method defaults to GET
	Method     string
	Params     map[string]string
	Headers    map[string]string
	Schema     map[string]any
	PrimaryKey [][]string
	// ParseResponse defaults to JSONRecords
	ParseResponse ResponseParser

	dispatcher Dispatcher
}

func (s *HttpStream) Name() string {
	return s.StreamName
}

func (s *HttpStream) Describe() airbyte.Stream {
	return describe(s.StreamName, s.Namespace, s.Schema, s.PrimaryKey)
}

func (s *HttpStream) ReadRecords() ([]map[string]any, error) {
	req, err := newRequest(s.Method, s.URLBase, s.Path, s.Params, s.Headers)
	if err != nil {
		return nil, err
	}
	resp, err := send(s.dispatcher, s.StreamName, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	parse := s.ParseResponse
	if parse == nil {
		parse = JSONRecords
	}
	return parse(resp)
}

// DeclarativeStream is a stream described by manifest. Requests are sent by nested Retriever
type DeclarativeStream struct {
	StreamName string
	Namespace  string
	Schema     map[string]any
	PrimaryKey [][]string
	Retriever  *SimpleRetriever
}

func (s *DeclarativeStream) Name() string {
	return s.StreamName
}

func (s *DeclarativeStream) Describe() airbyte.Stream {
	return describe(s.StreamName, s.Namespace, s.Schema, s.PrimaryKey)
}

func (s *DeclarativeStream) ReadRecords() ([]map[string]any, error) {
	if s.Retriever == nil {
		return nil, DispatcherMissing.New("stream %s has no retriever", s.StreamName)
	}
	return s.Retriever.Retrieve(s.StreamName)
}

// Authenticator decorates outgoing request with credentials
type Authenticator interface {
	Apply(req *http.Request)
}

type BearerAuthenticator struct {
	Token string
}

func (a BearerAuthenticator) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

type ApiKeyAuthenticator struct {
	Header string
	Token  string
}

func (a ApiKeyAuthenticator) Apply(req *http.Request) {
	req.Header.Set(a.Header, a.Token)
}

type Requester struct {
	URLBase           string
	Path              string
	Method            string
	RequestParameters map[string]string
	RequestHeaders    map[string]string
	Authenticator     Authenticator
}

// RecordSelector selects records from json response by path of object keys
type RecordSelector struct {
	FieldPath []string
}

func (rs RecordSelector) Select(resp *http.Response) ([]map[string]any, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ResponseParseError.Wrap(err, "failed to read response body")
	}
	var doc any
	if err = json.Unmarshal(body, &doc); err != nil {
		return nil, ResponseParseError.Wrap(err, "response body is not a valid json: %s", shorten(body))
	}
	for _, key := range rs.FieldPath {
		obj, ok := doc.(map[string]any)
		if !ok {
			return nil, ResponseParseError.New("can't select '%s' from %T", key, doc)
		}
		doc = obj[key]
	}
	return toRecords(doc)
}

// SimpleRetriever sends single request per read and extracts records with RecordSelector
type SimpleRetriever struct {
	Requester      *Requester
	RecordSelector RecordSelector
	Dispatcher     Dispatcher
}

func (r *SimpleRetriever) Retrieve(streamName string) ([]map[string]any, error) {
	if r.Requester == nil {
		return nil, airbyte.ConfigValidationError.New("stream %s has no requester", streamName)
	}
	req, err := newRequest(r.Requester.Method, r.Requester.URLBase, r.Requester.Path, r.Requester.RequestParameters, r.Requester.RequestHeaders)
	if err != nil {
		return nil, err
	}
	if r.Requester.Authenticator != nil {
		r.Requester.Authenticator.Apply(req)
	}
	resp, err := send(r.Dispatcher, streamName, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return r.RecordSelector.Select(resp)
}

// JSONRecords parses response body as json array of objects or a single object
func JSONRecords(resp *http.Response) ([]map[string]any, error) {
	return RecordSelector{}.Select(resp)
}

func describe(name, namespace string, schema map[string]any, pk [][]string) airbyte.Stream {
	if schema == nil {
		schema = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return airbyte.Stream{
		Name:                    name,
		Namespace:               namespace,
		JSONSchema:              schema,
		SupportedSyncModes:      []airbyte.SyncMode{airbyte.SyncModeFullRefresh},
		SourceDefinedPrimaryKey: pk,
	}
}

func newRequest(method, urlBase, path string, params, headers map[string]string) (*http.Request, error) {
	if method == "" {
		method = http.MethodGet
	}
	u, err := url.Parse(strings.TrimRight(urlBase, "/") + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, airbyte.ConfigValidationError.Wrap(err, "invalid url: %s%s", urlBase, path)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequest(strings.ToUpper(method), u.String(), nil)
	if err != nil {
		return nil, airbyte.ConfigValidationError.Wrap(err, "failed to create request")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func send(d Dispatcher, streamName string, req *http.Request) (*http.Response, error) {
	if d == nil {
		return nil, DispatcherMissing.New("stream %s: request dispatcher is not installed", streamName)
	}
	resp, err := d.Send(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, airbyte.HTTPError.New("%s %s failed with status %d: %s", req.Method, req.URL.RequestURI(), resp.StatusCode, shorten(body))
	}
	return resp, nil
}

func toRecords(doc any) ([]map[string]any, error) {
	switch v := doc.(type) {
	case nil:
		return []map[string]any{}, nil
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		records := make([]map[string]any, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, ResponseParseError.New("item #%d is not an object: %T", i, item)
			}
			records = append(records, obj)
		}
		return records, nil
	default:
		return nil, ResponseParseError.New("expected object or array, got: %T", doc)
	}
}

func shorten(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return fmt.Sprintf("%s...", body[:limit])
	}
	return string(body)
}
