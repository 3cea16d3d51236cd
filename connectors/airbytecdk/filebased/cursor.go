package filebased

import (
	"fmt"
	"sort"
)

const (
	historyField          = "history"
	defaultMaxHistorySize = 10000
)

// fileCursor tracks last modification time of synced files
type fileCursor struct {
	history        map[string]string
	maxHistorySize int
}

func newFileCursor(state map[string]any, maxHistorySize int) *fileCursor {
	c := &fileCursor{history: map[string]string{}, maxHistorySize: maxHistorySize}
	if h, ok := state[historyField].(map[string]any); ok {
		for uri, ts := range h {
			c.history[uri] = fmt.Sprint(ts)
		}
	}
	return c
}

// shouldSync reports whether the file is new or was modified since it was synced
func (c *fileCursor) shouldSync(file RemoteFile) bool {
	ts := formatLastModified(file.LastModified)
	synced, ok := c.history[file.URI]
	if ok {
		return ts > synced
	}
	if len(c.history) >= c.maxHistorySize {
		// history is full: files older than the oldest remembered one were synced already
		oldest, _ := c.oldest()
		return ts >= c.history[oldest]
	}
	return true
}

func (c *fileCursor) add(file RemoteFile) {
	c.history[file.URI] = formatLastModified(file.LastModified)
	for len(c.history) > c.maxHistorySize {
		oldest, _ := c.oldest()
		delete(c.history, oldest)
	}
}

func (c *fileCursor) oldest() (string, bool) {
	var uri string
	found := false
	for u, ts := range c.history {
		if !found || ts < c.history[uri] || (ts == c.history[uri] && u < uri) {
			uri = u
			found = true
		}
	}
	return uri, found
}

// value returns cursor value <last modified>_<uri> of the most recently modified file
func (c *fileCursor) value() string {
	keys := make([]string, 0, len(c.history))
	for uri, ts := range c.history {
		keys = append(keys, ts+"_"+uri)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	return keys[len(keys)-1]
}

func (c *fileCursor) state() map[string]any {
	history := make(map[string]any, len(c.history))
	for uri, ts := range c.history {
		history[uri] = ts
	}
	state := map[string]any{historyField: history}
	if v := c.value(); v != "" {
		state[LastModifiedField] = v
	}
	return state
}
