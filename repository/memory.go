package repository

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type memoryEntry struct {
	seq int64
	raw bson.Raw
}

// MemoryCollection is an in-process Collection backed by bson documents.
// It honours the same filter, scope and unique-field semantics as the
// MongoDB collection and is safe for concurrent use.
type MemoryCollection[T any] struct {
	mu     sync.RWMutex
	seq    int64
	docs   map[bson.ObjectID]*memoryEntry
	unique [][]string
}

func NewMemoryCollection[T any]() *MemoryCollection[T] {
	return &MemoryCollection[T]{docs: map[bson.ObjectID]*memoryEntry{}}
}

// WithUnique declares a unique compound key. Documents missing every key
// field are not constrained, as with a sparse index.
func (c *MemoryCollection[T]) WithUnique(fields ...string) *MemoryCollection[T] {
	c.unique = append(c.unique, fields)
	return c
}

func (c *MemoryCollection[T]) Find(_ context.Context, filter Filter, opts FindOptions) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	matches, err := c.match(filter, opts.Deleted)
	if err != nil {
		return nil, err
	}
	if opts.Sort != "" {
		sort.SliceStable(matches, func(i, j int) bool {
			cmp := compareValues(matches[i].doc[opts.Sort], matches[j].doc[opts.Sort])
			if opts.Desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
	if opts.Limit > 0 && int64(len(matches)) > opts.Limit {
		matches = matches[:opts.Limit]
	}

	out := make([]T, 0, len(matches))
	for _, m := range matches {
		var doc T
		if err := bson.Unmarshal(m.entry.raw, &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		out = append(out, doc)
	}
	return out, nil
}

func (c *MemoryCollection[T]) FindOne(_ context.Context, filter Filter, scope DeletedScope) (*T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	matches, err := c.match(filter, scope)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrNoDocuments
	}
	return decode[T](matches[0].entry.raw)
}

func (c *MemoryCollection[T]) Insert(_ context.Context, doc *T) (bson.ObjectID, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return bson.NilObjectID, err
	}
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return bson.NilObjectID, err
	}

	id := bson.NewObjectID()
	found := false
	for i, e := range d {
		if e.Key != "_id" {
			continue
		}
		found = true
		if oid, ok := e.Value.(bson.ObjectID); ok && !oid.IsZero() {
			id = oid
		} else {
			d[i].Value = id
		}
	}
	if !found {
		d = append(bson.D{{Key: "_id", Value: id}}, d...)
	}
	if raw, err = bson.Marshal(d); err != nil {
		return bson.NilObjectID, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.docs[id]; exists {
		return bson.NilObjectID, ErrDuplicateKey
	}
	if err := c.checkUnique(id, raw); err != nil {
		return bson.NilObjectID, err
	}
	c.seq++
	c.docs[id] = &memoryEntry{seq: c.seq, raw: raw}
	return id, nil
}

func (c *MemoryCollection[T]) Replace(_ context.Context, id bson.ObjectID, doc *T) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return err
	}
	m["_id"] = id
	if raw, err = bson.Marshal(m); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.docs[id]
	if !ok {
		return ErrNoDocuments
	}
	if err := c.checkUnique(id, raw); err != nil {
		return err
	}
	entry.raw = raw
	return nil
}

func (c *MemoryCollection[T]) UpdateOne(_ context.Context, filter Filter, scope DeletedScope, set bson.M) (*T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	matches, err := c.match(filter, scope)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrNoDocuments
	}
	raw, err := c.apply(matches[0], set)
	if err != nil {
		return nil, err
	}
	return decode[T](raw)
}

func (c *MemoryCollection[T]) UpdateMany(_ context.Context, filter Filter, scope DeletedScope, set bson.M) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	matches, err := c.match(filter, scope)
	if err != nil {
		return 0, err
	}
	for _, m := range matches {
		if _, err := c.apply(m, set); err != nil {
			return 0, err
		}
	}
	return int64(len(matches)), nil
}

func (c *MemoryCollection[T]) Count(_ context.Context, filter Filter, scope DeletedScope) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	matches, err := c.match(filter, scope)
	if err != nil {
		return 0, err
	}
	return int64(len(matches)), nil
}

func (c *MemoryCollection[T]) DeleteOne(_ context.Context, filter Filter) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	matches, err := c.match(filter, IncludeDeleted)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return ErrNoDocuments
	}
	delete(c.docs, matches[0].id)
	return nil
}

type memoryMatch struct {
	id    bson.ObjectID
	entry *memoryEntry
	doc   bson.M
}

// match returns the documents matching filter in insertion order.
func (c *MemoryCollection[T]) match(filter Filter, scope DeletedScope) ([]memoryMatch, error) {
	query, err := normalize(filter.Apply(scope))
	if err != nil {
		return nil, err
	}

	var out []memoryMatch
	for id, entry := range c.docs {
		var doc bson.M
		if err := bson.Unmarshal(entry.raw, &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		if matchesQuery(doc, query) {
			out = append(out, memoryMatch{id: id, entry: entry, doc: doc})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].entry.seq < out[j].entry.seq })
	return out, nil
}

func (c *MemoryCollection[T]) apply(m memoryMatch, set bson.M) (bson.Raw, error) {
	changes, err := normalize(set)
	if err != nil {
		return nil, err
	}
	for k, v := range changes {
		m.doc[k] = v
	}
	raw, err := bson.Marshal(m.doc)
	if err != nil {
		return nil, err
	}
	if err := c.checkUnique(m.id, raw); err != nil {
		return nil, err
	}
	m.entry.raw = raw
	return raw, nil
}

func (c *MemoryCollection[T]) checkUnique(id bson.ObjectID, raw bson.Raw) error {
	if len(c.unique) == 0 {
		return nil
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return err
	}
	for _, fields := range c.unique {
		key, ok := uniqueKey(doc, fields)
		if !ok {
			continue
		}
		for otherID, entry := range c.docs {
			if otherID == id {
				continue
			}
			var other bson.M
			if err := bson.Unmarshal(entry.raw, &other); err != nil {
				return err
			}
			if otherKey, ok := uniqueKey(other, fields); ok && otherKey == key {
				return fmt.Errorf("%w: %s", ErrDuplicateKey, strings.Join(fields, ", "))
			}
		}
	}
	return nil
}

func uniqueKey(doc bson.M, fields []string) (string, bool) {
	parts := make([]string, 0, len(fields))
	present := false
	for _, f := range fields {
		v, ok := doc[f]
		if ok && v != nil {
			present = true
		}
		parts = append(parts, fmt.Sprintf("%v", v))
	}
	return strings.Join(parts, "\x00"), present
}

func decode[T any](raw bson.Raw) (*T, error) {
	var doc T
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// normalize round-trips a query through bson so that its values have the
// same representation as decoded documents.
func normalize(m bson.M) (bson.M, error) {
	raw, err := bson.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func matchesQuery(doc, query bson.M) bool {
	for field, want := range query {
		got := doc[field]
		if ops, ok := operators(want); ok {
			for op, arg := range ops {
				switch op {
				case "$ne":
					if equalValues(got, arg) {
						return false
					}
				case "$in":
					if !inValues(got, arg) {
						return false
					}
				default:
					return false
				}
			}
			continue
		}
		if !equalValues(got, want) {
			return false
		}
	}
	return true
}

func operators(v any) (map[string]any, bool) {
	ops := map[string]any{}
	switch d := v.(type) {
	case bson.D:
		for _, e := range d {
			ops[e.Key] = e.Value
		}
	case bson.M:
		for k, val := range d {
			ops[k] = val
		}
	default:
		return nil, false
	}
	for k := range ops {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return ops, len(ops) > 0
}

func inValues(got, arg any) bool {
	values, ok := arg.(bson.A)
	if !ok {
		return false
	}
	for _, v := range values {
		if equalValues(got, v) {
			return true
		}
	}
	return false
}

func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := number(a); ok {
		fb, ok := number(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// compareValues orders values for sorting. Missing values sort first.
func compareValues(a, b any) int {
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ta, ok := a.(bson.DateTime); ok {
		if tb, ok := b.(bson.DateTime); ok {
			switch {
			case ta < tb:
				return -1
			case ta > tb:
				return 1
			}
			return 0
		}
	}
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}
