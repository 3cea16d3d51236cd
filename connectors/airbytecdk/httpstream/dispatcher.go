package httpstream

import (
	"net/http"
	"time"
)

// Dispatcher sends prepared requests. Streams never talk to the network directly,
// so tests can substitute a dispatcher that replays canned responses
type Dispatcher interface {
	Send(req *http.Request) (*http.Response, error)
}

// DispatcherFunc adapts ordinary function to Dispatcher
type DispatcherFunc func(req *http.Request) (*http.Response, error)

func (f DispatcherFunc) Send(req *http.Request) (*http.Response, error) {
	return f(req)
}

// NetworkDispatcher sends requests over real network
type NetworkDispatcher struct {
	Client *http.Client
}

func NewNetworkDispatcher(timeout time.Duration) *NetworkDispatcher {
	return &NetworkDispatcher{Client: &http.Client{Timeout: timeout}}
}

func (d *NetworkDispatcher) Send(req *http.Request) (*http.Response, error) {
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	return client.Do(req)
}
