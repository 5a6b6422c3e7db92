package draft

import (
	"fmt"
	"os"
	"sync"

	"gihan9a/draftsync/internal/logger"
	"gihan9a/draftsync/internal/utils"

	"github.com/fsnotify/fsnotify"
)

// ChangeFunc is called with the document identifier and new version of a draft that changed on disk
type ChangeFunc func(id, version string)

// Watcher tracks draft files of a FileStore and reports content changes,
// including edits made outside the server.
type Watcher struct {
	store    *FileStore
	watcher  *fsnotify.Watcher
	log      logger.Logger
	onChange ChangeFunc

	mu       sync.RWMutex
	versions map[string]string

	done chan struct{}
}

// NewWatcher starts watching the store's directory
func NewWatcher(store *FileStore, log logger.Logger, onChange ChangeFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(store.Dir()); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", store.Dir(), err)
	}

	w := &Watcher{
		store:    store,
		watcher:  fw,
		log:      log,
		onChange: onChange,
		versions: make(map[string]string),
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Version returns the last version seen for id
func (w *Watcher) Version(id string) (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	v, ok := w.versions[id]
	return v, ok
}

// Close stops the watcher and waits for its goroutine to exit
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Drafts are replaced by rename, which shows up as Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			id, ok := w.store.IDFromPath(event.Name)
			if !ok {
				continue
			}
			w.refresh(id, event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("DraftWatcher", "Watcher error", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (w *Watcher) refresh(id, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.log.Warn("DraftWatcher", "Error reading changed draft", map[string]interface{}{"id": id, "error": err.Error()})
		return
	}
	version := utils.CalculateHash(data)

	w.mu.Lock()
	previous := w.versions[id]
	w.versions[id] = version
	w.mu.Unlock()

	if previous == version {
		return
	}

	w.log.Debug("DraftWatcher", "Draft changed", map[string]interface{}{"id": id, "version": version})
	if w.onChange != nil {
		w.onChange(id, version)
	}
}
