// Copyright 2024 The GLOVE Authors. All rights reserved.

package gles

// TextureStore holds the context's textures keyed by
// integer name. Name 0 is never allocated; it means
// "no object" throughout the API.
type TextureStore struct {
	m    map[uint32]*Texture
	next uint32
}

// NewTextureStore creates an empty store.
func NewTextureStore() *TextureStore {
	return &TextureStore{m: make(map[uint32]*Texture), next: 1}
}

// Add stores t under a fresh name and returns the name.
func (s *TextureStore) Add(t *Texture) uint32 {
	name := s.next
	s.next++
	s.m[name] = t
	return name
}

// Get returns the texture stored under name, or nil.
func (s *TextureStore) Get(name uint32) *Texture { return s.m[name] }

// Remove deletes the entry for name, returning the removed
// texture (nil if absent). The texture itself is not freed.
func (s *TextureStore) Remove(name uint32) *Texture {
	t := s.m[name]
	delete(s.m, name)
	return t
}

// RenderbufferStore holds the context's renderbuffers
// keyed by integer name.
type RenderbufferStore struct {
	m    map[uint32]*Renderbuffer
	next uint32
}

// NewRenderbufferStore creates an empty store.
func NewRenderbufferStore() *RenderbufferStore {
	return &RenderbufferStore{m: make(map[uint32]*Renderbuffer), next: 1}
}

// Add stores r under a fresh name and returns the name.
func (s *RenderbufferStore) Add(r *Renderbuffer) uint32 {
	name := s.next
	s.next++
	s.m[name] = r
	return name
}

// Get returns the renderbuffer stored under name, or nil.
func (s *RenderbufferStore) Get(name uint32) *Renderbuffer { return s.m[name] }

// Remove deletes the entry for name, returning the removed
// renderbuffer (nil if absent).
func (s *RenderbufferStore) Remove(name uint32) *Renderbuffer {
	r := s.m[name]
	delete(s.m, name)
	return r
}
