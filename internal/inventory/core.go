// Package inventory groups catalog entities into file shards, loads
// those shards from store or disk, and reconciles incoming data with a
// baseline via a three-way merge (§4.2). Grounded on
// original_source/rechu/inventory/{base,products,shops}.py, generalized
// from two hand-written dict subclasses into one generic Inventory[T]
// plus per-entity wiring, matching Design Note "Dynamic matcher
// dispatch"'s spirit of collapsing parallel near-duplicates into one
// generic shape.
package inventory

import (
	"path/filepath"
	"sort"
)

// Selector maps each filename-template placeholder's field name to the
// value it resolves to for one entity — the "selector tuple" of the
// glossary, held as an unordered map keyed by field name.
type Selector map[string]string

// Inventory groups entities of type T by the resolved absolute path of
// the file shard they belong to. T is always a pointer type
// (*models.Product, *models.Shop, ...) so merge operations mutate
// shared state the way the entity's own Merge method expects.
type Inventory[T any] map[string][]T

// Spread groups models by the selector group returns for each, resolving
// each group to an absolute shard path under dataPath via template.
// Mirrors Products.spread/Shops.spread.
func Spread[T any](models []T, template *Template, dataPath string, group func(T) Selector) Inventory[T] {
	inv := make(Inventory[T])
	for _, model := range models {
		path := ResolvePath(dataPath, template, group(model))
		inv[path] = append(inv[path], model)
	}
	return inv
}

// ResolvePath formats template against sel's field values, rooted at
// dataPath, and returns the absolute form (matching the source's
// `(data_path / Path(path_format.format(**fields))).resolve()`).
func ResolvePath(dataPath string, template *Template, sel Selector) string {
	relative := template.Format(sel)
	joined := filepath.Join(dataPath, relative)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return joined
	}
	return abs
}

// ReaderFactory opens and parses the shard at path, standing in for the
// per-call construction of an ioformat.Reader[T] plus its Read(). Kept
// as a plain function (not the Reader[T] interface itself) so callers
// can pass `ioformat.NewProductsReader(path).Read` directly as a
// closure without an adapter type.
type ReaderFactory[T any] func(path string) ([]T, error)

// ShardLogger receives one message per shard that failed to parse
// during Read, so a malformed file is skipped rather than aborting the
// whole scan (§4.2's `read()` contract).
type ShardLogger func(path string, err error)

// Read scans dataPath for files matching template's glob, parsing each
// with a reader built by newReader. A shard that fails to parse is
// logged (via onError, when non-nil) and skipped, never aborting the
// rest of the scan. Keys are the resolved absolute paths of files that
// parsed successfully, sorted the same way the source's
// `sorted(data_path.glob(...))` iterates.
func Read[T any](dataPath string, template *Template, newReader ReaderFactory[T], onError ShardLogger) (Inventory[T], error) {
	pattern := filepath.Join(dataPath, template.GlobPattern())
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	inv := make(Inventory[T])
	for _, path := range matches {
		models, err := newReader(path)
		if err != nil {
			if onError != nil {
				onError(path, err)
			}
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		inv[abs] = models
	}
	return inv, nil
}

// Finder reports whether incoming matches any model already present in
// a shard, returning that model when it does. It stands in for the
// per-entity identity lookup a relational uniqueness index or a plain
// key map performs (§4.2 step 2).
type Finder[T any] func(existing []T, incoming T) (T, bool)

// Merger applies incoming's attributes onto existing in place,
// reporting whether existing changed, per §4.2's model-level merge
// contract (Product.Merge, Shop.Merge).
type Merger[T any] func(existing T, incoming T, override bool) (bool, error)

// Cloner returns an independent copy of a model, used only when
// update=false so merging to detect changes never mutates the caller's
// baseline.
type Cloner[T any] func(T) T

// MergeUpdate implements §4.2's three-way merge. For each shard present
// in other: a model with no existing match is appended (when update is
// true) and marks the shard changed; a model that does match is merged
// onto the existing one (skipped entirely when onlyNew is true). The
// returned Inventory contains only the shards that changed, with their
// full current content. When update is true, self is mutated in place
// to reflect the result; when false, self is left untouched and the
// returned inventory stands alone (built from clones, so detecting a
// change never mutates self's models).
func MergeUpdate[T any](self, other Inventory[T], find Finder[T], merge Merger[T], clone Cloner[T], update, onlyNew bool) (Inventory[T], error) {
	result := make(Inventory[T])
	for path, incomingList := range other {
		working := append([]T(nil), self[path]...)
		changed := false

		for _, incoming := range incomingList {
			existing, found := find(working, incoming)
			if !found {
				working = append(working, incoming)
				changed = true
				continue
			}
			if onlyNew {
				continue
			}

			target := existing
			if !update {
				target = clone(existing)
				replaceIdentical(working, existing, target)
			}
			didChange, err := merge(target, incoming, true)
			if err != nil {
				return nil, err
			}
			if didChange {
				changed = true
			}
		}

		if !changed {
			continue
		}
		result[path] = working
		if update {
			self[path] = working
		}
	}
	return result, nil
}

// replaceIdentical swaps the first pointer-identical occurrence of
// oldValue in working for newValue, used by MergeUpdate's update=false
// path to keep later lookups in the same pass seeing the clone rather
// than the untouched original.
func replaceIdentical[T any](working []T, oldValue, newValue T) {
	for i := range working {
		if any(working[i]) == any(oldValue) {
			working[i] = newValue
			return
		}
	}
}

// WriterFactory persists models to path via a format-specific writer,
// standing in for `ioformat.NewXWriter(path, models, updated).Write()`.
type WriterFactory[T any] func(path string, models []T) error

// Write persists every shard in inv via newWriter, matching §4.2's
// `write()` contract: one file per shard, all shards written.
func Write[T any](inv Inventory[T], newWriter WriterFactory[T]) error {
	for path, models := range inv {
		if err := newWriter(path, models); err != nil {
			return err
		}
	}
	return nil
}

// Find looks up an entity by a unique identity key within a shard,
// creating a stub carrying only that key when missing. Mirrors
// Shops.find; byKey extracts the comparison key from a model, makeStub
// builds a fresh entity carrying only the lookup key.
func Find[T any](shard []T, key string, byKey func(T) string, makeStub func(string) T) T {
	for _, model := range shard {
		if byKey(model) == key {
			return model
		}
	}
	return makeStub(key)
}
