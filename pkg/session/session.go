package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/xhad/langdetect/internal/models"
	"github.com/xhad/langdetect/internal/types"
	"github.com/xhad/langdetect/pkg/methods"
)

type EventType string

const (
	EventMethod    EventType = "method"
	EventFiles     EventType = "files"
	EventSubmitted EventType = "submitted"
	EventResults   EventType = "results"
	EventFailed    EventType = "failed"
)

type Event struct {
	Type  EventType
	State State
	Err   error
}

// FileEntry describes one file of the current set.
type FileEntry struct {
	Name        string
	ContentType string
	Size        int64
	Ref         types.Reference
	Linked      bool
}

// State is a read-only snapshot of the session.
type State struct {
	Method     models.Method
	HasMethod  bool
	Files      []FileEntry
	Results    models.Results
	HasResults bool
	InFlight   int
}

// Session is the single owner of the client state: the selected method, the
// chosen files with their references, and the latest results.
type Session struct {
	selector *methods.Selector
	files    types.FileStore
	analyzer types.Analyzer
	log      *zap.Logger

	mu          sync.Mutex
	current     []models.UploadedFile
	results     models.Results
	seq         uint64
	inFlight    int
	nextSubID   int
	subscribers map[int]func(Event)
}

var errNotReady = fmt.Errorf("%w: please select a method and upload files", models.ErrValidation)

func New(analyzer types.Analyzer, files types.FileStore, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		selector:    methods.New(),
		files:       files,
		analyzer:    analyzer,
		log:         log,
		subscribers: make(map[int]func(Event)),
	}
}

// Subscribe registers fn for every state change. The returned function
// removes the subscription.
func (s *Session) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Session) SelectMethod(m models.Method) error {
	if err := s.selector.Select(m); err != nil {
		return err
	}
	s.log.Debug("Method selected", zap.String("method", m.String()))
	s.publish(Event{Type: EventMethod})
	return nil
}

// SetFiles replaces the file set. References issued for the previous set are
// released and any results bound to it are dropped.
func (s *Session) SetFiles(files []models.UploadedFile) {
	s.mu.Lock()
	s.current = append([]models.UploadedFile(nil), files...)
	s.files.SetFiles(s.current)
	s.results = nil
	// responses for the previous set must not bind to the new references
	s.seq++
	s.mu.Unlock()

	s.log.Debug("File set replaced",
		zap.Int("files", len(files)),
		zap.Int("live_references", s.files.Live()),
	)
	s.publish(Event{Type: EventFiles})
}

// Ready reports whether a submission could be issued now.
func (s *Session) Ready() error {
	_, ok := s.selector.Current()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok || len(s.current) == 0 {
		return errNotReady
	}
	return nil
}

// Submit sends the current method and files to the analyzer. Only the
// response of the most recently issued submission is installed, and only if
// the file set has not changed since; otherwise ErrStaleSubmission is
// returned and nothing is published. On failure the previous results are kept.
func (s *Session) Submit(ctx context.Context) (models.Results, error) {
	method, ok := s.selector.Current()

	s.mu.Lock()
	if !ok || len(s.current) == 0 {
		s.mu.Unlock()
		return nil, errNotReady
	}
	files := s.current
	s.seq++
	seq := s.seq
	s.inFlight++
	s.mu.Unlock()

	s.log.Info("Submitting documents",
		zap.String("method", method.String()),
		zap.Int("files", len(files)),
		zap.Uint64("seq", seq),
	)
	s.publish(Event{Type: EventSubmitted})

	results, err := s.analyzer.Analyze(ctx, method, files)

	s.mu.Lock()
	s.inFlight--
	if seq != s.seq {
		latest := s.seq
		s.mu.Unlock()
		s.log.Warn("Discarding stale submission response",
			zap.Uint64("seq", seq),
			zap.Uint64("latest", latest),
			zap.NamedError("response_error", err),
		)
		return nil, staleError(seq, latest)
	}
	if err != nil {
		s.mu.Unlock()
		s.log.Error("Submission failed",
			zap.Uint64("seq", seq),
			zap.Bool("malformed_response", errors.Is(err, models.ErrMalformedResponse)),
			zap.Error(err),
		)
		s.publish(Event{Type: EventFailed, Err: err})
		return nil, err
	}
	if results == nil {
		results = models.Results{}
	}
	s.results = results
	s.mu.Unlock()

	s.log.Info("Submission completed", zap.Uint64("seq", seq), zap.Int("results", len(results)))
	s.publish(Event{Type: EventResults})
	return results.Clone(), nil
}

func staleError(seq, latest uint64) error {
	return fmt.Errorf("%w: submission %d, latest %d", models.ErrStaleSubmission, seq, latest)
}

// Results returns the latest results, or false when none are available.
func (s *Session) Results() (models.Results, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results.Clone(), s.results != nil
}

// Method returns the selected method.
func (s *Session) Method() (models.Method, bool) {
	return s.selector.Current()
}

// Files returns the resolver for links to the current files.
func (s *Session) Files() types.FileStore {
	return s.files
}

func (s *Session) State() State {
	method, hasMethod := s.selector.Current()

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]FileEntry, 0, len(s.current))
	for _, f := range s.current {
		ref, ok := s.files.Resolve(f.Name)
		entries = append(entries, FileEntry{
			Name:        f.Name,
			ContentType: f.ContentType,
			Size:        f.Size(),
			Ref:         ref,
			Linked:      ok,
		})
	}

	return State{
		Method:     method,
		HasMethod:  hasMethod,
		Files:      entries,
		Results:    s.results.Clone(),
		HasResults: s.results != nil,
		InFlight:   s.inFlight,
	}
}

// CurrentFiles returns the uploaded files of the current set.
func (s *Session) CurrentFiles() []models.UploadedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.UploadedFile(nil), s.current...)
}

func (s *Session) publish(ev Event) {
	ev.State = s.State()

	s.mu.Lock()
	subs := make([]func(Event), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}
