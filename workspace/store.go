package workspace

import (
	"sort"

	"github.com/wudi/excerptkit/anchor"
	"github.com/wudi/excerptkit/notes"
)

// Store is the in-memory model of one workspace: the canvas objects, the
// excerpt payloads behind them, their note contents and the links between
// anchors. It satisfies the link provider interface the endpoint tracker
// consumes. Store is not safe for concurrent use; like the rest of the
// interaction layer it lives on the UI goroutine.
type Store struct {
	links    map[string]anchor.Link
	objects  map[string]anchor.CanvasObject
	excerpts map[string]anchor.Excerpt
	notes    map[string]notes.Content
}

func NewStore() *Store {
	return &Store{
		links:    make(map[string]anchor.Link),
		objects:  make(map[string]anchor.CanvasObject),
		excerpts: make(map[string]anchor.Excerpt),
		notes:    make(map[string]notes.Content),
	}
}

func (s *Store) PutLink(l anchor.Link) { s.links[l.ID] = l }

func (s *Store) RemoveLink(id string) { delete(s.links, id) }

// Link implements scheduler.LinkProvider.
func (s *Store) Link(id string) (anchor.Link, bool) {
	l, ok := s.links[id]
	return l, ok
}

// LinkIDs implements scheduler.LinkProvider. IDs are returned sorted so
// callers iterating the full link set behave deterministically.
func (s *Store) LinkIDs() []string {
	ids := make([]string, 0, len(s.links))
	for id := range s.links {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Store) LinkCount() int { return len(s.links) }

// LinksTouching returns the IDs of every link with an anchor on the given
// canvas object.
func (s *Store) LinksTouching(objectID string) []string {
	var ids []string
	for id, l := range s.links {
		if anchorsObject(l.Source, objectID) || anchorsObject(l.Target, objectID) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func anchorsObject(a anchor.Anchor, objectID string) bool {
	oa, ok := a.(anchor.CanvasObjectAnchor)
	return ok && oa.ObjectID == objectID
}

func (s *Store) PutObject(obj anchor.CanvasObject) { s.objects[obj.ID] = obj }

func (s *Store) RemoveObject(id string) {
	delete(s.objects, id)
	delete(s.excerpts, id)
	delete(s.notes, id)
}

func (s *Store) Object(id string) (anchor.CanvasObject, bool) {
	obj, ok := s.objects[id]
	return obj, ok
}

func (s *Store) ObjectCount() int { return len(s.objects) }

func (s *Store) PutExcerpt(objectID string, ex anchor.Excerpt) { s.excerpts[objectID] = ex }

func (s *Store) Excerpt(objectID string) (anchor.Excerpt, bool) {
	ex, ok := s.excerpts[objectID]
	return ex, ok
}

func (s *Store) PutNote(objectID string, content notes.Content) { s.notes[objectID] = content }

func (s *Store) Note(objectID string) (notes.Content, bool) {
	n, ok := s.notes[objectID]
	return n, ok
}
