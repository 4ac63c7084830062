package editor

import (
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/a3tai/pdf-form-designer/internal/pdf"
)

// DefaultMaxSessions bounds the store when no capacity is configured
const DefaultMaxSessions = 64

// ErrSessionNotFound is returned for unknown or evicted session ids
var ErrSessionNotFound = errors.New("session not found")

// Store keeps editor sessions in a thread-safe least recently used list.
// Once full, creating a session evicts the one untouched for longest.
type Store struct {
	mutex     sync.RWMutex
	service   *pdf.Service
	scale     float64
	capacity  int
	items     map[string]*storeNode
	head      *storeNode // most recently used
	tail      *storeNode // least recently used
	hits      int64
	misses    int64
	evictions int64
}

type storeNode struct {
	session *Session
	prev    *storeNode
	next    *storeNode
}

// StoreStats describes the store occupancy
type StoreStats struct {
	Sessions  int   `json:"sessions"`
	Capacity  int   `json:"capacity"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// NewStore creates a store whose sessions load documents with service and
// size their canvas at scale
func NewStore(service *pdf.Service, capacity int, scale float64) *Store {
	if capacity <= 0 {
		capacity = DefaultMaxSessions
	}
	if scale <= 0 {
		scale = DefaultScale
	}

	s := &Store{
		service:  service,
		scale:    scale,
		capacity: capacity,
		items:    make(map[string]*storeNode),
		head:     &storeNode{},
		tail:     &storeNode{},
	}
	s.head.next = s.tail
	s.tail.prev = s.head
	return s
}

// Create loads data into a new session. Nothing is stored when the PDF
// cannot be loaded.
func (s *Store) Create(name string, data []byte) (*Session, error) {
	doc, err := s.service.Load(name, data)
	if err != nil {
		return nil, err
	}
	return s.add(doc), nil
}

// Open loads the PDF at path into a new session
func (s *Store) Open(path string) (*Session, error) {
	doc, err := s.service.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return s.add(doc), nil
}

func (s *Store) add(doc *pdf.Document) *Session {
	session := newSession(uuid.NewString(), s.service, s.scale, doc)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	node := &storeNode{session: session}
	s.addToFront(node)
	s.items[session.ID] = node
	if len(s.items) > s.capacity {
		s.evictLRU()
	}
	return session
}

// Get returns the session with the given id and marks it recently used
func (s *Store) Get(id string) (*Session, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	node, ok := s.items[id]
	if !ok {
		s.misses++
		return nil, ErrSessionNotFound
	}
	s.hits++
	s.moveToFront(node)
	return node.session, nil
}

// Remove drops a session
func (s *Store) Remove(id string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	node, ok := s.items[id]
	if !ok {
		return false
	}
	s.removeNode(node)
	delete(s.items, id)
	return true
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.items)
}

// IDs lists session ids from most to least recently used
func (s *Store) IDs() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ids := make([]string, 0, len(s.items))
	for n := s.head.next; n != s.tail; n = n.next {
		ids = append(ids, n.session.ID)
	}
	return ids
}

// Stats returns store counters
func (s *Store) Stats() StoreStats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return StoreStats{
		Sessions:  len(s.items),
		Capacity:  s.capacity,
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
	}
}

// Scale returns the render scale new sessions use
func (s *Store) Scale() float64 {
	return s.scale
}

// Service returns the PDF service shared by all sessions
func (s *Store) Service() *pdf.Service {
	return s.service
}

func (s *Store) moveToFront(node *storeNode) {
	s.removeNode(node)
	s.addToFront(node)
}

func (s *Store) addToFront(node *storeNode) {
	node.prev = s.head
	node.next = s.head.next
	s.head.next.prev = node
	s.head.next = node
}

func (s *Store) removeNode(node *storeNode) {
	node.prev.next = node.next
	node.next.prev = node.prev
}

func (s *Store) evictLRU() {
	lru := s.tail.prev
	if lru == s.head {
		return
	}
	s.removeNode(lru)
	delete(s.items, lru.session.ID)
	s.evictions++
	log.Printf("Evicted session %s (%s)", lru.session.ID, lru.session.DocumentName())
}
