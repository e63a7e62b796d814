// Package contenttype maps commentable Go types to "app.model" labels and
// knows how to load an instance of each by object ID.
package contenttype

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

var (
	// ErrUnknownModel is returned for a label or type that was never registered.
	ErrUnknownModel = errors.New("unknown content type")
	// ErrObjectNotFound is returned by loaders when no object has the given ID.
	ErrObjectNotFound = errors.New("object does not exist")
	// ErrAlreadyRegistered is returned when a label or type is registered twice.
	ErrAlreadyRegistered = errors.New("content type already registered")
)

// Loader fetches one object of a content type by its ID. It should return
// ErrObjectNotFound (optionally wrapped) when no such object exists.
type Loader func(objectID string) (any, error)

// ContentType identifies a commentable model.
type ContentType struct {
	AppLabel string
	Model    string

	typ    reflect.Type
	loader Loader
}

// Label returns the "app.model" form used in templates and storage.
func (ct *ContentType) Label() string {
	return ct.AppLabel + "." + ct.Model
}

func (ct *ContentType) String() string {
	return ct.Label()
}

// Type returns the registered Go type, with pointers dereferenced.
func (ct *ContentType) Type() reflect.Type {
	return ct.typ
}

// Object loads the instance with the given ID.
func (ct *ContentType) Object(objectID string) (any, error) {
	obj, err := ct.loader(objectID)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, fmt.Errorf("%s object with id %s: %w", ct.Model, objectID, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("loading %s %s: %w", ct.Label(), objectID, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%s object with id %s: %w", ct.Model, objectID, ErrObjectNotFound)
	}
	return obj, nil
}

// Registry holds the known content types.
type Registry struct {
	mu      sync.RWMutex
	byLabel map[string]*ContentType
	byType  map[reflect.Type]*ContentType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byLabel: make(map[string]*ContentType),
		byType:  make(map[reflect.Type]*ContentType),
	}
}

// Register adds a content type for the Go type of sample.
func (r *Registry) Register(appLabel, model string, sample any, loader Loader) (*ContentType, error) {
	appLabel, model = strings.ToLower(appLabel), strings.ToLower(model)
	if appLabel == "" || model == "" {
		return nil, fmt.Errorf("app label and model are required")
	}
	if strings.Contains(appLabel, ".") || strings.Contains(model, ".") {
		return nil, fmt.Errorf("app label and model must not contain '.'")
	}
	if sample == nil {
		return nil, fmt.Errorf("sample value is required for %s.%s", appLabel, model)
	}
	if loader == nil {
		return nil, fmt.Errorf("loader is required for %s.%s", appLabel, model)
	}

	ct := &ContentType{
		AppLabel: appLabel,
		Model:    model,
		typ:      TypeOf(sample),
		loader:   loader,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byLabel[ct.Label()]; ok {
		return nil, fmt.Errorf("%s: %w", ct.Label(), ErrAlreadyRegistered)
	}
	if existing, ok := r.byType[ct.typ]; ok {
		return nil, fmt.Errorf("type %s is %s: %w", ct.typ, existing.Label(), ErrAlreadyRegistered)
	}
	r.byLabel[ct.Label()] = ct
	r.byType[ct.typ] = ct

	return ct, nil
}

// Get returns the content type for an app label and model name.
func (r *Registry) Get(appLabel, model string) (*ContentType, error) {
	label := strings.ToLower(appLabel) + "." + strings.ToLower(model)

	r.mu.RLock()
	defer r.mu.RUnlock()

	ct, ok := r.byLabel[label]
	if !ok {
		return nil, fmt.Errorf("%s: %w", label, ErrUnknownModel)
	}
	return ct, nil
}

// Lookup returns the content type for an "app.model" label.
func (r *Registry) Lookup(label string) (*ContentType, error) {
	appLabel, model, err := ParseLabel(label)
	if err != nil {
		return nil, err
	}
	return r.Get(appLabel, model)
}

// ForType returns the content type registered for t.
func (r *Registry) ForType(t reflect.Type) (*ContentType, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ct, ok := r.byType[t]
	if !ok {
		return nil, fmt.Errorf("%v: %w", t, ErrUnknownModel)
	}
	return ct, nil
}

// ForObject returns the content type of obj.
func (r *Registry) ForObject(obj any) (*ContentType, error) {
	return r.ForType(TypeOf(obj))
}

// ParseLabel splits "app.model" into its parts.
func ParseLabel(label string) (appLabel, model string, err error) {
	parts := strings.Split(label, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("content type %q must be in the form app_label.model", label)
	}
	return strings.ToLower(parts[0]), strings.ToLower(parts[1]), nil
}

// TypeOf returns the type of v with pointers dereferenced, so *Entry and
// Entry name the same model. A nil v yields a nil type.
func TypeOf(v any) reflect.Type {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
