// Package moderation applies per-model comment moderation policies
// around comment saves.
package moderation

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"

	"github.com/evcraddock/comment-utils/internal/comment"
	"github.com/evcraddock/comment-utils/internal/contenttype"
)

var (
	// ErrAlreadyModerated is returned when registering a model twice.
	ErrAlreadyModerated = errors.New("model is already being moderated")
	// ErrNotModerated is returned when unregistering an unknown model.
	ErrNotModerated = errors.New("model is not currently being moderated")
	// ErrFutureDate is returned when a moderation date field is in the future.
	ErrFutureDate = errors.New("cannot determine moderation rules because date field is set to a value in the future")
	// ErrFieldNotFound is returned when an option names a missing field.
	ErrFieldNotFound = errors.New("field not found")
	// ErrDisallowed is returned from a save when the policy refuses the comment.
	ErrDisallowed = errors.New("comments are not allowed on this object")
)

// Moderator maps model types to their policies. It is a comment.Hook.
type Moderator struct {
	types *contenttype.Registry

	mu       sync.RWMutex
	registry map[reflect.Type]Policy
}

var _ comment.Hook = (*Moderator)(nil)

// New creates an empty moderator resolving comment content types in types.
func New(types *contenttype.Registry) *Moderator {
	return &Moderator{types: types, registry: make(map[reflect.Type]Policy)}
}

// Register moderates each model with p. A model is a sample value, a
// reflect.Type or a *contenttype.ContentType. Nothing is registered if
// any model is already moderated.
func (m *Moderator) Register(p Policy, models ...any) error {
	if p == nil {
		return fmt.Errorf("policy is required")
	}
	types, err := m.modelTypes(models)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[reflect.Type]bool, len(types))
	for _, t := range types {
		if _, ok := m.registry[t]; ok || seen[t] {
			return fmt.Errorf("%s: %w", m.modelName(t), ErrAlreadyModerated)
		}
		seen[t] = true
	}
	for _, t := range types {
		m.registry[t] = p
	}
	return nil
}

// Unregister stops moderating each model. Nothing is removed if any model
// is not moderated.
func (m *Moderator) Unregister(models ...any) error {
	types, err := m.modelTypes(models)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range types {
		if _, ok := m.registry[t]; !ok {
			return fmt.Errorf("%s: %w", m.modelName(t), ErrNotModerated)
		}
	}
	for _, t := range types {
		delete(m.registry, t)
	}
	return nil
}

// Policy returns the policy for obj's type.
func (m *Moderator) Policy(obj any) (Policy, bool) {
	return m.policyForType(contenttype.TypeOf(obj))
}

// Models returns the labels of moderated models, sorted.
func (m *Moderator) Models() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.registry))
	for t := range m.registry {
		names = append(names, m.modelName(t))
	}
	sort.Strings(names)
	return names
}

// PreSave implements comment.Hook. It refuses disallowed comments and marks
// moderated ones non-public. Existing comments are not moderated again.
func (m *Moderator) PreSave(c *comment.Comment) error {
	if c.ID != 0 {
		return nil
	}
	p, obj, err := m.resolve(c)
	if err != nil || p == nil {
		return err
	}

	allowed, err := p.Allow(c, obj)
	if err != nil {
		return fmt.Errorf("checking whether comment is allowed: %w", err)
	}
	if !allowed {
		decisionsTotal.WithLabelValues(c.ContentType, "disallowed").Inc()
		slog.Info("comment disallowed", "content_type", c.ContentType, "object_id", c.ObjectID)
		return ErrDisallowed
	}

	moderate, err := p.Moderate(c, obj)
	if err != nil {
		return fmt.Errorf("checking whether comment needs moderation: %w", err)
	}
	if moderate {
		c.IsPublic = false
		decisionsTotal.WithLabelValues(c.ContentType, "moderated").Inc()
		slog.Info("comment held for moderation", "content_type", c.ContentType, "object_id", c.ObjectID)
		return nil
	}

	decisionsTotal.WithLabelValues(c.ContentType, "allowed").Inc()
	return nil
}

// PostSave implements comment.Hook. New comments are reported through
// the policy's Notify.
func (m *Moderator) PostSave(c *comment.Comment, created bool) error {
	if !created {
		return nil
	}
	p, obj, err := m.resolve(c)
	if err != nil || p == nil {
		return err
	}
	p.Notify(c, obj)
	return nil
}

// CommentsOpen reports whether obj accepts new comments. Objects of
// unmoderated models are open.
func (m *Moderator) CommentsOpen(obj any) (bool, error) {
	p, ok := m.Policy(obj)
	if !ok {
		return true, nil
	}
	return p.CommentsOpen(obj)
}

// CommentsModerated reports whether new comments on obj are held for
// approval. Objects of unmoderated models are not.
func (m *Moderator) CommentsModerated(obj any) (bool, error) {
	p, ok := m.Policy(obj)
	if !ok {
		return false, nil
	}
	return p.CommentsModerated(obj)
}

// resolve finds the policy and content object for c. A nil policy means
// the comment's model is not moderated.
func (m *Moderator) resolve(c *comment.Comment) (Policy, any, error) {
	ct, err := m.types.Lookup(c.ContentType)
	if errors.Is(err, contenttype.ErrUnknownModel) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	p, ok := m.policyForType(ct.Type())
	if !ok {
		return nil, nil, nil
	}

	obj, err := ct.Object(c.ObjectID)
	if err != nil {
		return nil, nil, err
	}
	return p, obj, nil
}

func (m *Moderator) policyForType(t reflect.Type) (Policy, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.registry[t]
	return p, ok
}

func (m *Moderator) modelTypes(models []any) ([]reflect.Type, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("at least one model is required")
	}
	types := make([]reflect.Type, 0, len(models))
	for _, model := range models {
		var t reflect.Type
		switch v := model.(type) {
		case nil:
			return nil, fmt.Errorf("model must not be nil")
		case *contenttype.ContentType:
			t = v.Type()
		case reflect.Type:
			t = v
			for t.Kind() == reflect.Pointer {
				t = t.Elem()
			}
		default:
			t = contenttype.TypeOf(v)
		}
		types = append(types, t)
	}
	return types, nil
}

// modelName names t by its content type label when it has one.
func (m *Moderator) modelName(t reflect.Type) string {
	if m.types != nil {
		if ct, err := m.types.ForType(t); err == nil {
			return ct.Label()
		}
	}
	return t.String()
}
