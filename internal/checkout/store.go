package checkout

import "sync"

// 浏览器端 sessionStorage / localStorage 使用的 key，保持一致便于排查。
const (
	KeyCurrentOrderID    = "currentOrderId"
	KeyPaymentInProgress = "paymentInProgress"
	KeyPaymentUTR        = "paymentUTR"
	KeyDirectOrder       = "directOrder"
	KeyCart              = "cart"
)

var sessionKeys = []string{KeyCurrentOrderID, KeyPaymentInProgress, KeyPaymentUTR, KeyDirectOrder}

// Storage 简单 KV，对应浏览器的 sessionStorage / localStorage。
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

type MemoryStore struct {
	mu sync.Mutex
	m  map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	s.m[key] = value
	s.mu.Unlock()
}

func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
