package importer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultSettle = 500 * time.Millisecond

// Watcher imports files as they appear in a directory. A file is imported
// once it has gone quiet for the settle period, so a create followed by
// several writes yields one article.
type Watcher struct {
	importer *Importer
	settle   time.Duration
}

func NewWatcher(importer *Importer, settle time.Duration) *Watcher {
	if settle <= 0 {
		settle = defaultSettle
	}
	return &Watcher{importer: importer, settle: settle}
}

// Watch blocks until ctx is done. onResult, if set, receives every import
// attempt.
func (w *Watcher) Watch(ctx context.Context, dir string, onResult func(Result)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	ready := make(chan string, 100)
	var (
		mu      sync.Mutex
		pending = map[string]*time.Timer{}
	)
	defer func() {
		mu.Lock()
		for _, timer := range pending {
			timer.Stop()
		}
		mu.Unlock()
	}()

	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()

		if timer, ok := pending[path]; ok {
			timer.Reset(w.settle)
			return
		}
		pending[path] = time.AfterFunc(w.settle, func() {
			mu.Lock()
			delete(pending, path)
			mu.Unlock()

			select {
			case ready <- path:
			case <-ctx.Done():
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.importer.Supported(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				schedule(event.Name)
			}
		case path := <-ready:
			result := w.importer.ImportFile(ctx, path)
			if result.Err != nil {
				log.Printf("failed to import %s: %v", path, result.Err)
			} else {
				log.Printf("imported %s as article %d (indexed: %t)", path, result.Article.ID, result.Indexed)
			}
			if onResult != nil {
				onResult(result)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watcher error: %v", err)
		}
	}
}
