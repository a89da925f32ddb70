package notice

import (
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Listener receives every notice that is shown to the user.
type Listener func(Notice)

// Service logs notices and fans them out to listeners.
type Service struct {
	logger *log.Logger

	mu        sync.RWMutex
	listeners map[int]Listener
	next      int
}

// NewService creates a service logging through logger, or the standard
// logrus logger when nil.
func NewService(logger *log.Logger) *Service {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Service{logger: logger, listeners: make(map[int]Listener)}
}

// Listen adds l and returns a func removing it.
func (s *Service) Listen(l Listener) (cancel func()) {
	s.mu.Lock()
	s.next++
	id := s.next
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Handle reports a catalogued condition. Unknown kinds are reported as UNK_001.
func (s *Service) Handle(kind Kind, opts ...Option) Notice {
	n, ok := Lookup(kind)
	if !ok {
		n = Unknown(errors.New(string(kind)))
	}
	for _, opt := range opts {
		opt(&n)
	}
	s.report(n)
	return n
}

// HandleError reports err. A Notice anywhere in err's chain is reported as is.
func (s *Service) HandleError(err error, opts ...Option) Notice {
	var n Notice
	if !errors.As(err, &n) {
		n = Unknown(err)
	}
	for _, opt := range opts {
		opt(&n)
	}
	s.report(n)
	return n
}

func (s *Service) report(n Notice) {
	entry := s.logger.WithFields(log.Fields{
		"code":        n.Code,
		"recoverable": n.Recoverable,
	})
	switch n.Level {
	case LevelWarning:
		entry.Warn(n.Message)
	case LevelInfo:
		entry.Info(n.Message)
	default:
		entry.Error(n.Message)
	}

	if !n.ShowToUser {
		return
	}

	s.mu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.RUnlock()

	for _, l := range listeners {
		s.notify(l, n)
	}
}

func (s *Service) notify(l Listener, n Notice) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithFields(log.Fields{"code": n.Code, "panic": r}).Error("Notice listener failed")
		}
	}()
	l(n)
}
