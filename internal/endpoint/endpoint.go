package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gihan9a/draftsync/internal/draft"
	"gihan9a/draftsync/internal/logger"
	"gihan9a/draftsync/internal/session"
	"gihan9a/draftsync/internal/utils"
	"gihan9a/draftsync/pkg/chunk"
	"gihan9a/draftsync/pkg/syncproto"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const logModule = "SyncEndpoint"

// ErrNotReady is reported when syncText arrives before the baseline was sent
var ErrNotReady = errors.New("session has not been initialized")

// Config is the protocol configuration injected into the endpoint
type Config struct {
	// DocumentID names the single draft every connection reads and writes
	DocumentID string
	// ChunkSize must match the client
	ChunkSize int
}

// Conn is the message channel of one connection. *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
}

// Endpoint reconstructs and persists documents reported over sync connections
type Endpoint struct {
	cfg    Config
	codec  chunk.Codec
	store  draft.Store
	log    logger.Logger
	stats  *Stats
	tracer trace.Tracer

	written *ownVersions
}

// New validates the configuration and creates an endpoint
func New(cfg Config, store draft.Store, log logger.Logger) (*Endpoint, error) {
	if err := draft.ValidateID(cfg.DocumentID); err != nil {
		return nil, err
	}
	codec, err := chunk.NewCodec(cfg.ChunkSize)
	if err != nil {
		return nil, err
	}
	return &Endpoint{
		cfg:     cfg,
		codec:   codec,
		store:   store,
		log:     log,
		stats:   &Stats{},
		tracer:  otel.Tracer("gihan9a/draftsync/endpoint"),
		written: newOwnVersions(),
	}, nil
}

// Stats returns the endpoint counters
func (e *Endpoint) Stats() *Stats {
	return e.stats
}

// Open allocates a session for a new connection and loads its baseline.
// The returned init message must be delivered before MarkReady is called.
func (e *Endpoint) Open(ctx context.Context) (*session.Session, syncproto.Message, error) {
	sess := session.New()
	if err := sess.Initialize(ctx, e.store, e.cfg.DocumentID); err != nil {
		return nil, syncproto.Message{}, err
	}
	return sess, syncproto.Init(sess.Baseline()), nil
}

// Handle dispatches one inbound message. ok is false when there is nothing to reply.
func (e *Endpoint) Handle(ctx context.Context, sess *session.Session, msg syncproto.Message) (reply syncproto.Message, ok bool) {
	e.stats.messages.Add(1)

	switch msg.Event {
	case syncproto.EventSyncText:
		var entries syncproto.Entries
		if err := msg.Decode(&entries); err != nil {
			e.stats.rejectedMessages.Add(1)
			e.log.Warn(logModule, "Rejected syncText payload", map[string]interface{}{
				"connection_id": sess.ID(),
				"error":         err.Error(),
			})
			return syncproto.SyncError(err), true
		}
		return e.HandleSync(ctx, sess, entries), true
	default:
		e.log.Debug(logModule, "Ignoring unknown event", map[string]interface{}{
			"connection_id": sess.ID(),
			"event":         msg.Event,
		})
		return syncproto.Message{}, false
	}
}

// HandleSync reconstructs the document from entries, commits it as the
// session baseline, persists it and returns the acknowledgment. A failed
// store write is acknowledged with syncError; the baseline is committed
// either way.
func (e *Endpoint) HandleSync(ctx context.Context, sess *session.Session, entries []chunk.Entry) syncproto.Message {
	if sess.State() != session.Ready {
		e.stats.rejectedMessages.Add(1)
		return syncproto.SyncError(ErrNotReady)
	}

	ctx, span := e.tracer.Start(ctx, "syncText", trace.WithAttributes(
		attribute.String("draft.id", e.cfg.DocumentID),
		attribute.String("connection.id", sess.ID()),
		attribute.Int("sync.entries", len(entries)),
	))
	defer span.End()

	text, report := e.codec.Reconstruct(sess.Baseline(), entries)
	e.stats.addReport(report)
	if report.Invalid > 0 {
		e.log.Debug(logModule, "Invalid chunk entries ignored", map[string]interface{}{
			"connection_id": sess.ID(),
			"invalid":       report.Invalid,
			"entries":       report.Total(),
		})
	}

	sess.Commit(text)

	if err := e.persist(ctx, text); err != nil {
		e.stats.storeFailures.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "store write failed")
		e.log.Error(logModule, "Failed to persist draft", map[string]interface{}{
			"connection_id": sess.ID(),
			"document_id":   e.cfg.DocumentID,
			"error":         err,
		})
		return syncproto.SyncError(err)
	}

	e.stats.syncs.Add(1)
	span.SetAttributes(attribute.Int("draft.length", len(text)))
	return syncproto.SyncEnd()
}

func (e *Endpoint) persist(ctx context.Context, text string) error {
	ctx, span := e.tracer.Start(ctx, "draft.Write")
	defer span.End()

	// Recorded before the write so a watcher never sees the new file first.
	version := utils.CalculateHash([]byte(text))
	e.written.add(e.cfg.DocumentID, version)
	if err := e.store.Write(ctx, e.cfg.DocumentID, text); err != nil {
		e.written.remove(e.cfg.DocumentID, version)
		span.RecordError(err)
		return fmt.Errorf("failed to persist draft: %w", err)
	}
	return nil
}

// NoteDraftChange is told about every change to a persisted draft. Changes
// that were not written by this endpoint leave open sessions with a stale
// baseline; they are counted and logged but not reconciled.
func (e *Endpoint) NoteDraftChange(id, version string) {
	if e.written.contains(id, version) {
		return
	}
	e.stats.RecordExternalEdit()
	e.log.Warn(logModule, "Draft changed outside sync connections", map[string]interface{}{
		"document_id": id,
		"version":     version,
	})
}

// Serve runs the connection lifecycle: open a session, send init, then
// handle messages one at a time until reading fails. The read error is
// returned so the caller can tell a normal close from a failure.
func (e *Endpoint) Serve(ctx context.Context, conn Conn) error {
	sess, initMsg, err := e.Open(ctx)
	if err != nil {
		e.log.Error(logModule, "Failed to open session", map[string]interface{}{"error": err})
		_ = conn.WriteJSON(syncproto.SyncError(err))
		return err
	}

	e.stats.connections.Add(1)
	e.stats.activeConnections.Add(1)
	defer e.stats.activeConnections.Add(-1)

	e.log.Info(logModule, "Connection opened", map[string]interface{}{
		"connection_id": sess.ID(),
		"document_id":   e.cfg.DocumentID,
		"baseline_len":  len(sess.Baseline()),
	})
	defer e.log.Info(logModule, "Connection closed", map[string]interface{}{"connection_id": sess.ID()})

	if err := conn.WriteJSON(initMsg); err != nil {
		return fmt.Errorf("failed to send init: %w", err)
	}
	sess.MarkReady()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg syncproto.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			e.stats.rejectedMessages.Add(1)
			e.log.Warn(logModule, "Malformed frame", map[string]interface{}{
				"connection_id": sess.ID(),
				"error":         err.Error(),
			})
			if err := conn.WriteJSON(syncproto.SyncError(fmt.Errorf("malformed frame: %w", err))); err != nil {
				return err
			}
			continue
		}

		reply, ok := e.Handle(ctx, sess, msg)
		if !ok {
			continue
		}
		if err := conn.WriteJSON(reply); err != nil {
			return fmt.Errorf("failed to send %s: %w", reply.Event, err)
		}
	}
}
