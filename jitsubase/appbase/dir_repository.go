package appbase

import (
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/atomic"
)

type Repository[T any] interface {
	io.Closer
	GetData() *T
	ChangesChannel() <-chan bool
}

// RepositoryDataLoader loads data from the directory. tag identifies loaded content: data with unchanged tag is not replaced
type RepositoryDataLoader[T any] func(dir string) (data *T, tag string, err error)

// DirRepository keeps data loaded from a directory and reloads it when files in the directory change
type DirRepository[T any] struct {
	Service
	dir         string
	loader      RepositoryDataLoader[T]
	debounce    time.Duration
	data        *atomic.Pointer[T]
	tag         *atomic.String
	changesChan chan bool
	watcher     *fsnotify.Watcher
	closed      chan struct{}
}

// NewDirRepository loads data synchronously. Repository can't serve without data so the initial load error is returned.
// When debounce is positive, directory is watched and data is reloaded after debounce period of quiet
func NewDirRepository[T any](id, dir string, loader RepositoryDataLoader[T], debounce time.Duration) (*DirRepository[T], error) {
	r := &DirRepository[T]{
		Service:     NewServiceBase(id),
		dir:         dir,
		loader:      loader,
		debounce:    debounce,
		data:        atomic.NewPointer[T](nil),
		tag:         atomic.NewString(""),
		changesChan: make(chan bool, 1),
		closed:      make(chan struct{}),
	}
	if _, err := r.refresh(false); err != nil {
		return nil, err
	}
	if debounce > 0 {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, r.NewError("failed to create file watcher: %v", err)
		}
		if err = watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, r.NewError("failed to watch %s: %v", dir, err)
		}
		r.watcher = watcher
		go r.watch()
		r.Infof("Watching %s for changes", dir)
	}
	return r, nil
}

// Reload loads data from directory. Returns true when data was modified
func (r *DirRepository[T]) Reload() (bool, error) {
	return r.refresh(true)
}

func (r *DirRepository[T]) refresh(notify bool) (bool, error) {
	start := time.Now()
	data, tag, err := r.loader(r.dir)
	if err != nil {
		return false, r.NewError("error loading repository from %s: %v", r.dir, err)
	}
	if tag != "" && tag == r.tag.Load() {
		r.Debugf("Repository is not modified")
		return false, nil
	}
	r.data.Store(data)
	r.tag.Store(tag)
	r.Debugf("Refreshed in %v", time.Since(start))
	if notify {
		select {
		case r.changesChan <- true:
			//notify listener if it is listening
		default:
		}
	}
	return true, nil
}

func (r *DirRepository[T]) watch() {
	debounceTimer := time.NewTimer(0)
	debounceTimer.Stop()
	for {
		select {
		case <-r.closed:
			debounceTimer.Stop()
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				r.Debugf("File changed: %s %s", filepath.Base(event.Name), event.Op)
				debounceTimer.Reset(r.debounce)
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.Errorf("File watcher error: %v", err)
		case <-debounceTimer.C:
			// keep serving previous data when directory content is broken
			if _, err := r.refresh(true); err != nil {
				r.Errorf("%v", err)
			}
		}
	}
}

func (r *DirRepository[T]) GetData() *T {
	return r.data.Load()
}

func (r *DirRepository[T]) ChangesChannel() <-chan bool {
	return r.changesChan
}

func (r *DirRepository[T]) Close() error {
	close(r.closed)
	if r.watcher != nil {
		return r.watcher.Close()
	}
	return nil
}
