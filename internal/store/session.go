// Package store implements the §6 Store port: open/close a
// transactional session, query by type with optional filters, add,
// merge and delete entities, flush-without-commit to obtain generated
// ids. Grounded in original_source/rechu/database.py's Database class
// and the teacher's internal/repositories/base.Repository[T] generics,
// rebuilt around bun's transaction type instead of SQLAlchemy's Session.
package store

import (
	"context"
	"sync"

	"github.com/uptrace/bun"

	"github.com/rechu/catalog/internal/database"
	apperrors "github.com/rechu/catalog/pkg/errors"
	"github.com/rechu/catalog/pkg/logger"
)

// Store owns the underlying connection and enforces §5's non-reentrancy
// rule: at most one Session may be outstanding at a time. Mirrors
// Database.__init__/__enter__'s `self.session` guard, generalized to a
// mutex since Go has no single-threaded guarantee to lean on.
type Store struct {
	db *database.BunDB

	mu   sync.Mutex
	open bool
}

// New wraps an already-connected BunDB in a Store.
func New(db *database.BunDB) *Store {
	return &Store{db: db}
}

// Open begins a new session. A second Open call while one is still
// outstanding fails with SessionReentry rather than silently queuing or
// nesting — mirrors Database.__enter__'s
// `raise RuntimeError('Detected nested database session attempts')`.
func (s *Store) Open(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return nil, apperrors.SessionReentry("a store session is already open")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	s.open = true
	logger.StoreLogger("open").Debug().Msg("session opened")
	return &Session{store: s, tx: tx, ctx: ctx}, nil
}

// Close releases the Store's underlying connection. Any outstanding
// session is left to the caller to close first; Close does not roll one
// back implicitly, since only the session holder knows whether its work
// succeeded.
func (s *Store) Close() error {
	return s.db.Close()
}

// Session is a single logical unit of work over one transaction.
// Operations performed through it are read-your-writes: a query issued
// on Session.DB sees rows inserted earlier in the same session, since
// both go through the same open transaction (§5).
type Session struct {
	store  *Store
	tx     bun.Tx
	ctx    context.Context
	closed bool
}

// DB exposes the session's transaction as a bun.IDB, the type every
// repository and inventory.StoreQuerier implementation in this module
// is built against — the same repository code runs whether it is handed
// a Session's transaction or a plain *database.BunDB.
func (sess *Session) DB() bun.IDB {
	return sess.tx
}

// Flush executes any pending statements against the open transaction
// without committing, so that auto-generated ids (e.g. a newly inserted
// Product.ID) become visible to later statements in the same session.
// Bun, unlike SQLAlchemy's unit-of-work, executes each Create/Update
// call immediately and returns generated ids synchronously — there is no
// separate buffered-statement queue to flush. Flush is therefore a
// documented no-op kept only so callers translating from the source's
// explicit `session.flush()` calls have a direct equivalent to call.
func (sess *Session) Flush(context.Context) error {
	return nil
}

// Close commits the session's transaction on a nil err and rolls it
// back otherwise, then marks the Store free for the next Open. Per §5:
// "Commit happens on normal scope exit; any exception propagates
// without commit" — deliberately diverging from
// original_source/rechu/database.py's Database.__exit__, which commits
// unconditionally regardless of the exception passed through the
// context manager.
func (sess *Session) Close(err error) error {
	if sess.closed {
		return nil
	}
	sess.closed = true
	defer func() {
		sess.store.mu.Lock()
		sess.store.open = false
		sess.store.mu.Unlock()
	}()

	log := logger.StoreLogger("close")
	if err != nil {
		if rerr := sess.tx.Rollback(); rerr != nil {
			log.Error().Err(rerr).Msg("rollback failed")
			return rerr
		}
		log.Debug().Err(err).Msg("session rolled back")
		return nil
	}
	if cerr := sess.tx.Commit(); cerr != nil {
		log.Error().Err(cerr).Msg("commit failed")
		return cerr
	}
	log.Debug().Msg("session committed")
	return nil
}
