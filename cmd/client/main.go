package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gihan9a/draftsync/internal/client"
	"gihan9a/draftsync/internal/logger"
	"gihan9a/draftsync/pkg/chunk"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"
)

const logModule = "ClientMain"

type options struct {
	url       string
	file      string
	chunkSize int
	watch     bool
	insecure  bool
	debug     bool
}

func main() {
	opts := options{}
	flag.StringVar(&opts.url, "url", "ws://localhost:2048/sync", "Sync endpoint URL")
	flag.StringVar(&opts.file, "file", "", "Local file whose contents are pushed")
	flag.IntVar(&opts.chunkSize, "chunk", chunk.DefaultSize, "Chunk size in UTF-16 code units, must match the server")
	flag.BoolVar(&opts.watch, "watch", false, "Keep running and push the file whenever it changes")
	flag.BoolVar(&opts.insecure, "insecure", false, "Skip TLS certificate verification for wss URLs")
	flag.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if opts.file == "" {
		log.Fatal("-file is required")
	}

	appLog := logger.New(logger.Options{Debug: opts.debug})
	defer appLog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, appLog); err != nil && !errors.Is(err, context.Canceled) {
		appLog.Error(logModule, "Client stopped with error", map[string]interface{}{"error": err})
		appLog.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, appLog logger.Logger) error {
	dialer := *websocket.DefaultDialer
	if opts.insecure {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	c, err := client.Dial(ctx, &dialer, opts.url, opts.chunkSize, appLog)
	if err != nil {
		return err
	}
	defer func() { c.Close() }() // c is replaced on reconnect

	if err := push(ctx, c, opts.file); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch its directory.
	target := filepath.Clean(opts.file)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}
	appLog.Info(logModule, "Watching for changes", map[string]interface{}{"file": target})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			err := push(ctx, c, target)
			switch {
			case errors.Is(err, os.ErrNotExist):
				continue
			case errors.Is(err, client.ErrRejected):
				appLog.Warn(logModule, "Push rejected, reconnecting", map[string]interface{}{"error": err.Error()})
				fresh, err := redial(ctx, c, &dialer, opts, appLog)
				if err != nil {
					return err
				}
				c = fresh
			case err != nil:
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			appLog.Warn(logModule, "Watcher error", map[string]interface{}{"error": err.Error()})
		}
	}
}

func push(ctx context.Context, c *client.Client, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}
	return c.Push(ctx, string(data))
}

// redial replaces a connection whose server baseline is no longer known
func redial(ctx context.Context, old *client.Client, dialer *websocket.Dialer, opts options, appLog logger.Logger) (*client.Client, error) {
	old.Close()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Second):
	}
	return client.Dial(ctx, dialer, opts.url, opts.chunkSize, appLog)
}
