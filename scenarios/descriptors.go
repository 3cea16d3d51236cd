package scenarios

import (
	"io"
	"net/http"
	"strings"

	"go.uber.org/atomic"
)

// RequestDescriptor identifies mocked request by its path with query, e.g. /v1/users?limit=10
type RequestDescriptor struct {
	Path string `mapstructure:"path"`
}

// ResponseDescriptor is a canned response
type ResponseDescriptor struct {
	StatusCode int    `mapstructure:"status_code"`
	Body       string `mapstructure:"body"`
}

// RequestResponseMapping is a mock table
type RequestResponseMapping map[RequestDescriptor]ResponseDescriptor

// Lookup finds response for the path
func (m RequestResponseMapping) Lookup(path string) (ResponseDescriptor, bool) {
	resp, ok := m[RequestDescriptor{Path: path}]
	return resp, ok
}

func (m RequestResponseMapping) clone() RequestResponseMapping {
	if m == nil {
		return nil
	}
	c := make(RequestResponseMapping, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// ReplayDispatcher answers requests from mock table instead of sending them over network
type ReplayDispatcher struct {
	mapping RequestResponseMapping
	hits    atomic.Int64
	misses  atomic.Int64
}

func NewReplayDispatcher(mapping RequestResponseMapping) *ReplayDispatcher {
	return &ReplayDispatcher{mapping: mapping.clone()}
}

func (d *ReplayDispatcher) Send(req *http.Request) (*http.Response, error) {
	path := req.URL.RequestURI()
	rd, ok := d.mapping.Lookup(path)
	if !ok {
		d.misses.Inc()
		return nil, UnexpectedRequest.New("Unexpected request %s %s", req.Method, path)
	}
	d.hits.Inc()
	return &http.Response{
		Status:        http.StatusText(rd.StatusCode),
		StatusCode:    rd.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": []string{"application/json"}},
		Body:          io.NopCloser(strings.NewReader(rd.Body)),
		ContentLength: int64(len(rd.Body)),
		Request:       req,
	}, nil
}

// Hits number of requests answered from the table
func (d *ReplayDispatcher) Hits() int64 {
	return d.hits.Load()
}

// Misses number of requests absent from the table
func (d *ReplayDispatcher) Misses() int64 {
	return d.misses.Load()
}
