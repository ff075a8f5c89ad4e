package gltfio

import (
	"strconv"
)

type entity[T any] interface {
	*T
	entityID() string
	setEntityID(string)
}

// Collection is an ordered set of records indexed by id.
type Collection[T any, P entity[T]] struct {
	items []T
	index map[string]int
}

// Append adds v and returns it as stored. A record without an id gets the
// decimal index it lands at.
func (c *Collection[T, P]) Append(v T) (T, error) {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	p := P(&v)
	if p.entityID() == "" {
		p.setEntityID(strconv.Itoa(len(c.items)))
	}
	id := p.entityID()
	if _, ok := c.index[id]; ok {
		var zero T
		return zero, contractErr("document.duplicate_id", "id %q already in use", id)
	}
	c.index[id] = len(c.items)
	c.items = append(c.items, v)
	return v, nil
}

// Get looks a record up by id.
func (c *Collection[T, P]) Get(id string) (T, error) {
	if i, ok := c.index[id]; ok {
		return c.items[i], nil
	}
	var zero T
	return zero, dataErr("document.missing_id", "no %T with id %q", zero, id)
}

func (c *Collection[T, P]) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

func (c *Collection[T, P]) Len() int {
	return len(c.items)
}

// At returns the i-th record in insertion order.
func (c *Collection[T, P]) At(i int) T {
	return c.items[i]
}

// Elements returns the records in insertion order. The slice must not be
// modified.
func (c *Collection[T, P]) Elements() []T {
	return c.items
}

// Document is the indexed set of records consumed by the reader and
// produced by the builder.
type Document struct {
	Buffers     Collection[Buffer, *Buffer]
	BufferViews Collection[BufferView, *BufferView]
	Accessors   Collection[Accessor, *Accessor]
	Images      Collection[Image, *Image]
	Meshes      Collection[Mesh, *Mesh]
}
