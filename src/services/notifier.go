package services

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	NoticeSuccess = "success"
	NoticeError   = "error"
)

// Notice is a one-shot message shown on the next page render.
type Notice struct {
	Level   string `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Notifier queues notices per browser key until they are read.
type Notifier struct {
	cache *cache.Cache
	mu    sync.Mutex
}

func NewNotifier(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Notifier{cache: cache.New(ttl, 2*ttl)}
}

func (n *Notifier) Push(key string, notice Notice) {
	if key == "" {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	var queue []Notice
	if existing, found := n.cache.Get(key); found {
		queue = existing.([]Notice)
	}
	n.cache.SetDefault(key, append(queue, notice))
}

func (n *Notifier) Success(key, title, message string) {
	n.Push(key, Notice{Level: NoticeSuccess, Title: title, Message: message})
}

func (n *Notifier) Error(key, title, message string) {
	n.Push(key, Notice{Level: NoticeError, Title: title, Message: message})
}

// Pop returns and clears the queued notices for key.
func (n *Notifier) Pop(key string) []Notice {
	if key == "" {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	existing, found := n.cache.Get(key)
	if !found {
		return nil
	}
	n.cache.Delete(key)
	return existing.([]Notice)
}
