// Package kernel is the composition root of the assistant. It owns the
// session store, the document indexer and the tool registry, and runs the
// tool dispatch loop that turns a user prompt into a streamed Reply.
//
// The kernel initializes from configuration via New, creating all subsystems
// internally. Functional options allow test overrides of any subsystem.
//
//	k, err := kernel.New(&cfg)
//	reply := k.Send(ctx, "What's the weather in Boston?")
//	for reply.Next() {
//		fmt.Print(reply.Fragment())
//	}
package kernel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tailored-agentic-units/insight/agent"
	"github.com/tailored-agentic-units/insight/archive"
	"github.com/tailored-agentic-units/insight/artifacts"
	"github.com/tailored-agentic-units/insight/core/protocol"
	"github.com/tailored-agentic-units/insight/embedding"
	"github.com/tailored-agentic-units/insight/imagegen"
	"github.com/tailored-agentic-units/insight/index"
	"github.com/tailored-agentic-units/insight/observability"
	"github.com/tailored-agentic-units/insight/search"
	"github.com/tailored-agentic-units/insight/session"
	"github.com/tailored-agentic-units/insight/tools"
)

// ToolExecutor abstracts tool listing and execution for testability.
// *tools.Registry is the default implementation.
type ToolExecutor interface {
	List() []protocol.Tool
	Execute(ctx context.Context, name string, args json.RawMessage) (tools.Result, error)
}

// Option configures a Kernel. Options replace the subsystem New would
// otherwise create from configuration.
type Option func(*Kernel)

// WithAgent overrides the config-created agent.
func WithAgent(a agent.Agent) Option {
	return func(k *Kernel) { k.agent = a }
}

// WithStore overrides the config-created session store.
func WithStore(s *session.Store) Option {
	return func(k *Kernel) { k.store = s }
}

// WithToolExecutor overrides the builtin tool registry.
func WithToolExecutor(e ToolExecutor) Option {
	return func(k *Kernel) { k.tools = e }
}

// WithEmbedder overrides the config-created embedder used for documents.
func WithEmbedder(e embedding.Embedder) Option {
	return func(k *Kernel) { k.embedder = e }
}

// WithArtifacts overrides the config-created artifact store.
func WithArtifacts(s artifacts.Store) Option {
	return func(k *Kernel) { k.artifacts = s }
}

// WithObserver overrides the observer named in the configuration.
func WithObserver(o observability.Observer) Option {
	return func(k *Kernel) { k.observer = o }
}

// WithClock overrides time.Now for the system prompt.
func WithClock(now func() time.Time) Option {
	return func(k *Kernel) { k.now = now }
}

// Kernel runs conversations for every session in its store.
type Kernel struct {
	agent     agent.Agent
	store     *session.Store
	tools     ToolExecutor
	embedder  embedding.Embedder
	indexer   *index.Indexer
	artifacts artifacts.Store
	archive   *archive.Archive
	observer  observability.Observer
	now       func() time.Time

	snapshotDir string
}

// New creates a Kernel from configuration. Subsystems not supplied through
// options are built from their config sections. When an archive path is
// configured, archived sessions are restored. The store always ends up with
// a current session.
func New(cfg *Config, opts ...Option) (*Kernel, error) {
	k := &Kernel{snapshotDir: cfg.Index.SnapshotDir}
	for _, opt := range opts {
		opt(k)
	}

	if k.observer == nil {
		name := cfg.Observer
		if name == "" {
			name = defaultObserver
		}
		obs, err := observability.GetObserver(name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observer: %w", err)
		}
		k.observer = obs
	}
	if k.now == nil {
		k.now = time.Now
	}

	if k.agent == nil {
		a, err := agent.New(&cfg.Agent)
		if err != nil {
			return nil, fmt.Errorf("failed to create agent: %w", err)
		}
		k.agent = a
	}

	if k.embedder == nil {
		emb, err := embedding.New(context.Background(), cfg.Embedding)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
		k.embedder = emb
	}
	k.indexer = index.NewIndexer(cfg.Index, k.embedder, index.WithObserver(k.observer))

	if k.artifacts == nil {
		k.artifacts = artifacts.NewFileStore(cfg.Artifacts.Root)
	}

	if k.tools == nil {
		reg := tools.NewRegistry()
		err := tools.RegisterBuiltins(reg, tools.Builtins{
			Search:    search.New(cfg.Search),
			Images:    imagegen.New(cfg.Image),
			Artifacts: k.artifacts,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to register tools: %w", err)
		}
		k.tools = reg
	}

	if cfg.Archive.Path != "" {
		a, err := archive.Open(cfg.Archive.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open archive: %w", err)
		}
		k.archive = a
	}

	if k.store == nil {
		storeOpts := []session.Option{session.WithObserver(k.observer)}
		if k.archive != nil {
			storeOpts = append(storeOpts, session.WithRecorder(k.archive))
		}
		k.store = session.NewStore(cfg.Session, storeOpts...)
	}

	if k.archive != nil {
		if _, err := k.store.Restore(context.Background(), k.archive); err != nil {
			k.archive.Close()
			return nil, err
		}
		k.restoreSnapshots()
	}

	if k.store.Current() == nil {
		k.store.Create()
	}

	return k, nil
}

// Store returns the kernel's session store.
func (k *Kernel) Store() *session.Store {
	return k.store
}

// Sessions returns all session IDs, newest first.
func (k *Kernel) Sessions() []string {
	return k.store.List()
}

// Current returns the current session.
func (k *Kernel) Current() *session.Session {
	return k.store.Current()
}

// NewSession creates a session and makes it current.
func (k *Kernel) NewSession() *session.Session {
	return k.store.Create()
}

// Select makes the session with the given ID current.
func (k *Kernel) Select(id string) error {
	return k.store.Select(id)
}

// Send posts prompt to the current session and runs a turn.
func (k *Kernel) Send(ctx context.Context, prompt string) *Reply {
	sess := k.store.Current()
	if sess == nil {
		return failedReply(ErrNoSession)
	}
	return k.SendTo(ctx, sess.ID(), prompt)
}

// SendTo appends prompt as a user message to the given session, attaching
// the files uploaded since the previous prompt, and runs a turn.
func (k *Kernel) SendTo(ctx context.Context, sessionID, prompt string) *Reply {
	if strings.TrimSpace(prompt) == "" {
		return failedReply(ErrEmptyPrompt)
	}

	pending, err := k.store.ConsumePending(sessionID)
	if err != nil {
		return failedReply(err)
	}
	if err := k.store.Append(sessionID, protocol.NewUserMessage(prompt, pending...)); err != nil {
		return failedReply(err)
	}
	return k.Respond(ctx, sessionID)
}

// Respond runs a turn answering the current transcript of a session.
func (k *Kernel) Respond(ctx context.Context, sessionID string) *Reply {
	t := &turn{k: k, ctx: ctx, sessionID: sessionID}
	return t.run()
}

// Upload adds a document to the current session's knowledge base.
func (k *Kernel) Upload(ctx context.Context, name string, data []byte) error {
	sess := k.store.Current()
	if sess == nil {
		return ErrNoSession
	}
	return k.UploadTo(ctx, sess.ID(), name, data)
}

// UploadTo extracts the text of a PDF, DOCX or TXT document and merges it
// into the session's index. Uploading a name the session already holds
// merges any new content but leaves the file lists unchanged. On failure
// the session is left unchanged.
func (k *Kernel) UploadTo(ctx context.Context, sessionID, name string, data []byte) error {
	sess, err := k.store.Get(sessionID)
	if err != nil {
		return err
	}

	merged := sess.Index().Has(name)

	text, err := index.ExtractText(name, data)
	if err != nil {
		k.uploadFailed(ctx, sessionID, name, err)
		return err
	}

	idx, err := k.indexer.Ingest(ctx, sess.Index(), name, text)
	if err != nil {
		k.uploadFailed(ctx, sessionID, name, err)
		return err
	}

	if err := k.store.SetIndex(sessionID, idx); err != nil {
		return err
	}
	if _, err := k.store.RecordUpload(sessionID, name); err != nil {
		return err
	}

	if k.snapshotDir != "" {
		if err := k.saveSnapshot(sessionID, idx); err != nil {
			k.uploadFailed(ctx, sessionID, name, err)
		}
	}

	observability.Emit(ctx, k.observer, EventUpload, observability.LevelInfo, "kernel.upload", map[string]any{
		"session": sessionID,
		"file":    name,
		"chunks":  idx.Len(),
		"merged":  merged,
	})
	return nil
}

// ClearKnowledge drops the session's index and uploaded files.
func (k *Kernel) ClearKnowledge(sessionID string) error {
	if err := k.store.ClearKnowledge(sessionID); err != nil {
		return err
	}
	if k.snapshotDir != "" {
		if err := os.Remove(k.snapshotPath(sessionID)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove index snapshot: %w", err)
		}
	}
	return nil
}

// Export returns the session's transcript as JSON.
func (k *Kernel) Export(sessionID string) ([]byte, error) {
	return k.store.Export(sessionID)
}

// Close releases the archive, if one is open.
func (k *Kernel) Close() error {
	if k.archive == nil {
		return nil
	}
	return k.archive.Close()
}

// recordAnswer returns the callback that stores a finished Reply.
func (k *Kernel) recordAnswer(ctx context.Context, sessionID string) func(string) {
	return func(text string) {
		if err := k.store.Append(sessionID, protocol.NewAssistantMessage(text)); err != nil {
			observability.Emit(ctx, k.observer, EventError, observability.LevelError, "kernel.reply", map[string]any{
				"session": sessionID,
				"error":   err.Error(),
			})
			return
		}
		observability.Emit(ctx, k.observer, EventResponse, observability.LevelInfo, "kernel.reply", map[string]any{
			"session":         sessionID,
			"response_length": len(text),
		})
	}
}

func (k *Kernel) uploadFailed(ctx context.Context, sessionID, name string, err error) {
	observability.Emit(ctx, k.observer, EventError, observability.LevelWarning, "kernel.upload", map[string]any{
		"session": sessionID,
		"file":    name,
		"error":   err.Error(),
	})
}

func (k *Kernel) saveSnapshot(sessionID string, idx *index.Index) error {
	if err := os.MkdirAll(k.snapshotDir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	return idx.Save(k.snapshotPath(sessionID))
}

func (k *Kernel) snapshotPath(sessionID string) string {
	return filepath.Join(k.snapshotDir, sessionID+".gob")
}

// restoreSnapshots reattaches saved indexes to restored sessions. Their
// sources count as uploaded but not pending.
func (k *Kernel) restoreSnapshots() {
	if k.snapshotDir == "" {
		return
	}
	for _, id := range k.store.List() {
		idx, err := index.Load(k.snapshotPath(id))
		if err != nil {
			continue
		}
		k.store.SetIndex(id, idx)
		for _, src := range idx.Sources() {
			k.store.RecordUpload(id, src.Name)
		}
		k.store.ConsumePending(id)
	}
}
