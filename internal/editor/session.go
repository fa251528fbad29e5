// Package editor implements the configuration editing session: one
// open editor instance for one resource, driving fetch → edit →
// validate → preview/dry-run → apply → commit-or-rollback against the
// resource store gateway.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kubedeck/kubedeck-backend/internal/document"
	"github.com/kubedeck/kubedeck-backend/internal/document/diff"
	"github.com/kubedeck/kubedeck-backend/internal/document/validation"
	"github.com/kubedeck/kubedeck-backend/internal/models"
)

// State is the session's position in its lifecycle.
type State string

const (
	StateIdle     State = "idle"
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateEditing  State = "editing"
	StateApplying State = "applying"
	StateApplied  State = "applied"
	StateFailed   State = "failed"
)

var (
	// ErrSyntaxInvalid rejects apply/dry-run while the editor text does
	// not parse. It is a user-facing precondition failure, not a crash,
	// and no gateway call is made.
	ErrSyntaxInvalid = errors.New("configuration text has a syntax error")
	// ErrInvalidState rejects an operation not allowed in the current
	// session state.
	ErrInvalidState = errors.New("operation not allowed in current session state")
)

// Gateway is the resource store contract the session consumes. The
// HTTP client in internal/gateway implements it; tests substitute
// fakes.
type Gateway interface {
	GetConfig(ctx context.Context, ref models.ResourceRef) (document.Document, error)
	PutConfig(ctx context.Context, ref models.ResourceRef, doc document.Document, dryRun bool, strategy models.UpdateStrategy) (*models.ApplyResult, error)
	ValidateConfig(ctx context.Context, resourceType string, doc document.Document) ([]validation.Issue, error)
}

// Features toggles the optional editor surfaces. All on by default;
// there is exactly one session implementation regardless of which are
// enabled.
type Features struct {
	DryRun      bool
	DiffPreview bool
	LiveBanner  bool
}

// Options configures a session.
type Options struct {
	// ValidateDebounce delays remote validation after an edit so typing
	// does not flood the gateway. Zero means the default (400ms);
	// negative disables debouncing (validation runs synchronously,
	// used by tests).
	ValidateDebounce time.Duration
	Syntax           document.Syntax // initial syntax, default YAML
	Features         *Features       // nil = all enabled
}

const defaultValidateDebounce = 400 * time.Millisecond

// Session is the per-editor state machine. One open editing session
// per resource; the editor UI instance that created it is its only
// owner. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	ref      models.ResourceRef
	gw       Gateway
	state    State
	features Features
	debounce time.Duration

	original     document.Document
	originalText document.EditorText
	currentText  document.EditorText
	hasChanges   bool
	syntaxErr    string
	issues       []validation.Issue
	changes      []diff.Change
	rollbackKey  string

	editGen       int // bumped on every edit; stale validations are dropped
	validateTimer *time.Timer
	closed        bool
}

// NewSession creates an Idle session for the given resource. Open must
// be called before editing.
func NewSession(ref models.ResourceRef, gw Gateway, opts Options) *Session {
	feats := Features{DryRun: true, DiffPreview: true, LiveBanner: true}
	if opts.Features != nil {
		feats = *opts.Features
	}
	debounce := opts.ValidateDebounce
	if debounce == 0 {
		debounce = defaultValidateDebounce
	}
	return &Session{
		ref:      ref,
		gw:       gw,
		state:    StateIdle,
		features: feats,
		debounce: debounce,
	}
}

// Open fetches the live document and seeds the session. On failure the
// session stays Idle and the error is returned for the editor to show
// a retryable error state.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("%w: open from %s", ErrInvalidState, s.state)
	}
	s.state = StateLoading
	syntax := s.currentText.Syntax
	if syntax == "" {
		syntax = document.SyntaxYAML
	}
	s.mu.Unlock()

	doc, err := s.gw.GetConfig(ctx, s.ref)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if err != nil {
		s.state = StateIdle
		return err
	}
	return s.seedLocked(doc, syntax)
}

// Refetch reloads the live document, discarding uncommitted edits.
// Allowed from Ready and Editing.
func (s *Session) Refetch(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateReady && s.state != StateEditing && s.state != StateApplied && s.state != StateFailed {
		s.mu.Unlock()
		return fmt.Errorf("%w: refetch from %s", ErrInvalidState, s.state)
	}
	prev := s.state
	s.state = StateLoading
	syntax := s.currentText.Syntax
	s.mu.Unlock()

	doc, err := s.gw.GetConfig(ctx, s.ref)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if err != nil {
		// Keep the previous document and state; the editor shows a
		// retryable error and any uncommitted edits survive.
		s.state = prev
		return err
	}
	return s.seedLocked(doc, syntax)
}

// seedLocked installs doc as the session's pristine original.
func (s *Session) seedLocked(doc document.Document, syntax document.Syntax) error {
	text, err := document.ToText(doc, syntax)
	if err != nil {
		s.state = StateIdle
		return err
	}
	s.original = document.DeepCopy(doc)
	s.originalText = text
	s.currentText = text
	s.hasChanges = false
	s.syntaxErr = ""
	s.issues = nil
	s.changes = nil
	s.state = StateReady
	return nil
}

// Edit replaces the editor text, reparsing and recomputing the diff.
// On a parse failure the session enters a syntax-error condition:
// apply and dry-run are disabled, the previous diff is cleared, and
// hasChanges keeps its last computed value (the malformed text has no
// document to diff).
func (s *Session) Edit(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady && s.state != StateEditing && s.state != StateApplied && s.state != StateFailed {
		return
	}
	s.currentText.Text = text
	s.editGen++

	doc, err := document.ToDocument(s.currentText)
	if err != nil {
		s.syntaxErr = err.Error()
		s.issues = nil
		s.changes = nil
		s.stopValidateTimerLocked()
		return
	}
	s.syntaxErr = ""
	s.changes = diff.Diff(s.original, doc)
	s.hasChanges = len(s.changes) > 0
	if s.hasChanges {
		s.state = StateEditing
	} else {
		s.state = StateReady
	}
	s.scheduleValidationLocked(doc)
}

// scheduleValidationLocked debounces remote validation relative to
// keystroke frequency. Results from a superseded edit are dropped.
func (s *Session) scheduleValidationLocked(doc document.Document) {
	gen := s.editGen
	run := func() {
		issues, err := s.gw.ValidateConfig(context.Background(), s.ref.Type, doc)
		if err != nil {
			// Validation is advisory; a failed call just leaves the
			// previous issues in place.
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || gen != s.editGen {
			return
		}
		s.issues = issues
	}
	s.stopValidateTimerLocked()
	if s.debounce < 0 {
		s.mu.Unlock()
		run()
		s.mu.Lock()
		return
	}
	s.validateTimer = time.AfterFunc(s.debounce, run)
}

func (s *Session) stopValidateTimerLocked() {
	if s.validateTimer != nil {
		s.validateTimer.Stop()
		s.validateTimer = nil
	}
}

// ConvertSyntax re-renders the current text in the target syntax. The
// conversion goes through the structured document, so it never changes
// whether the session has changes. Rejected while the text does not
// parse.
func (s *Session) ConvertSyntax(target document.Syntax) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.syntaxErr != "" {
		return ErrSyntaxInvalid
	}
	if s.currentText.Syntax == target {
		return nil
	}
	converted, err := document.Convert(s.currentText, target)
	if err != nil {
		return err
	}
	origConverted, err := document.Convert(s.originalText, target)
	if err != nil {
		return err
	}
	s.currentText = converted
	s.originalText = origConverted
	return nil
}

// Apply sends the current document to the gateway. With dryRun the
// result is a preview: appliedChanges are surfaced and the session's
// original is left untouched. A real apply commits: original becomes
// the applied document, hasChanges resets and the rollback key is
// recorded. Validation issues never block apply; a syntax error always
// does.
func (s *Session) Apply(ctx context.Context, dryRun bool, strategy models.UpdateStrategy) (*models.ApplyResult, error) {
	s.mu.Lock()
	if dryRun && !s.features.DryRun {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: dry-run disabled", ErrInvalidState)
	}
	if s.state != StateReady && s.state != StateEditing && s.state != StateApplied && s.state != StateFailed {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: apply from %s", ErrInvalidState, s.state)
	}
	if s.syntaxErr != "" {
		s.mu.Unlock()
		return nil, ErrSyntaxInvalid
	}
	doc, err := document.ToDocument(s.currentText)
	if err != nil {
		s.mu.Unlock()
		return nil, ErrSyntaxInvalid
	}
	prev := s.state
	if !dryRun {
		s.state = StateApplying
	}
	syntax := s.currentText.Syntax
	s.mu.Unlock()

	result, err := s.gw.PutConfig(ctx, s.ref, doc, dryRun, strategy)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		// The editor closed mid-apply. The mutation was allowed to
		// finish server-side; its result is simply not shown.
		return result, err
	}
	if err != nil {
		if !dryRun {
			s.state = StateFailed
		}
		return nil, err
	}
	if dryRun {
		// Preview only: no state transition, original untouched.
		return result, nil
	}
	if !result.Success {
		s.state = StateFailed
		return result, nil
	}

	text, terr := document.ToText(doc, syntax)
	if terr != nil {
		s.state = prev
		return result, terr
	}
	s.original = document.DeepCopy(doc)
	s.originalText = text
	s.currentText = text
	s.hasChanges = false
	s.changes = nil
	s.rollbackKey = result.RollbackKey
	s.state = StateApplied
	return result, nil
}

// Reset discards uncommitted edits, restoring the pristine text.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle || s.state == StateLoading || s.state == StateApplying {
		return
	}
	s.currentText = s.originalText
	s.hasChanges = false
	s.syntaxErr = ""
	s.issues = nil
	s.changes = nil
	s.editGen++
	s.stopValidateTimerLocked()
	s.state = StateReady
}

// Close deallocates the session, discarding all uncommitted edits. An
// in-flight apply is not cancelled; cancelling a mutating call midway
// would leave ambiguous server-side state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopValidateTimerLocked()
	s.original = nil
	s.originalText = document.EditorText{}
	s.currentText = document.EditorText{}
	s.hasChanges = false
	s.syntaxErr = ""
	s.issues = nil
	s.changes = nil
	s.state = StateIdle
}

// Snapshot is a point-in-time copy of the session's observable state,
// for rendering.
type Snapshot struct {
	Ref         models.ResourceRef
	State       State
	Text        document.EditorText
	HasChanges  bool
	SyntaxError string
	Issues      []validation.Issue
	Changes     []diff.Change
	RollbackKey string
}

// Snapshot returns the current observable state. The diff preview is
// withheld when the feature is disabled.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Ref:         s.ref,
		State:       s.state,
		Text:        s.currentText,
		HasChanges:  s.hasChanges,
		SyntaxError: s.syntaxErr,
		Issues:      append([]validation.Issue(nil), s.issues...),
		RollbackKey: s.rollbackKey,
	}
	if s.features.DiffPreview {
		snap.Changes = append([]diff.Change(nil), s.changes...)
	}
	return snap
}

// Original returns a copy of the pristine document.
func (s *Session) Original() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return document.DeepCopy(s.original)
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
