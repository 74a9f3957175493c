package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"mdmportal/pkg/authz"

	"github.com/go-playground/validator/v10"
)

// Gate answers capability checks. *Session implements it.
type Gate interface {
	CheckPermission(resource, action string) bool
}

// Kind describes one entity family on the API.
type Kind[T any] struct {
	Resource string
	// ListPath and CreatePath default to each other when one is empty.
	ListPath   string
	CreatePath string
	// ItemPath is a format with one %s for the escaped key. DeletePath
	// overrides it for deletes.
	ItemPath   string
	DeletePath string
	Key        func(*T) string
	// SearchFields returns the display fields a free-text filter looks at.
	SearchFields func(*T) []string
	// Ungated lists actions the server accepts from any authenticated user.
	Ungated []string
}

func (k Kind[T]) listPath() string {
	if k.ListPath != "" {
		return k.ListPath
	}
	return k.CreatePath
}

func (k Kind[T]) createPath() string {
	if k.CreatePath != "" {
		return k.CreatePath
	}
	return k.ListPath
}

func (k Kind[T]) itemPath(key string) string {
	return fmt.Sprintf(k.ItemPath, url.PathEscape(key))
}

func (k Kind[T]) deletePath(key string) string {
	if k.DeletePath != "" {
		return fmt.Sprintf(k.DeletePath, url.PathEscape(key))
	}
	return k.itemPath(key)
}

func (k Kind[T]) gated(action string) bool {
	for _, a := range k.Ungated {
		if a == action {
			return false
		}
	}
	return true
}

// checker is implemented by payloads with rules struct tags cannot express.
type checker interface {
	Check() error
}

// Collection is list/create/update/delete for one entity family. Mutations
// are checked against the gate and validated before anything is sent.
type Collection[T any] struct {
	client   *Client
	gate     Gate
	kind     Kind[T]
	validate *validator.Validate
	onMutate func(context.Context)
}

func NewCollection[T any](client *Client, gate Gate, kind Kind[T]) *Collection[T] {
	return &Collection[T]{client: client, gate: gate, kind: kind, validate: newValidator()}
}

// OnMutate registers fn to run after every successful mutation.
func (c *Collection[T]) OnMutate(fn func(context.Context)) {
	c.onMutate = fn
}

// Kind returns the collection's description.
func (c *Collection[T]) Kind() Kind[T] { return c.kind }

func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := c.client.Do(ctx, http.MethodGet, c.kind.listPath(), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Collection[T]) Create(ctx context.Context, item T) (*T, error) {
	if err := c.allow(authz.ActionCreate); err != nil {
		return nil, err
	}
	if err := c.check(&item); err != nil {
		return nil, err
	}
	var created T
	if err := c.client.Do(ctx, http.MethodPost, c.kind.createPath(), item, &created); err != nil {
		return nil, err
	}
	c.mutated(ctx)
	return &created, nil
}

func (c *Collection[T]) Update(ctx context.Context, key string, item T) (*T, error) {
	if err := c.allow(authz.ActionUpdate); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, &ValidationError{Msg: "key is required"}
	}
	if err := c.check(&item); err != nil {
		return nil, err
	}
	var updated T
	if err := c.client.Do(ctx, http.MethodPut, c.kind.itemPath(key), item, &updated); err != nil {
		return nil, err
	}
	c.mutated(ctx)
	return &updated, nil
}

func (c *Collection[T]) Delete(ctx context.Context, key string) error {
	if err := c.allow(authz.ActionDelete); err != nil {
		return err
	}
	if key == "" {
		return &ValidationError{Msg: "key is required"}
	}
	if err := c.client.Do(ctx, http.MethodDelete, c.kind.deletePath(key), nil, nil); err != nil {
		return err
	}
	c.mutated(ctx)
	return nil
}

func (c *Collection[T]) allow(action string) error {
	if !c.kind.gated(action) {
		return nil
	}
	if c.gate == nil || !c.gate.CheckPermission(c.kind.Resource, action) {
		return &PermissionError{Resource: c.kind.Resource, Action: action}
	}
	return nil
}

func (c *Collection[T]) check(item *T) error {
	if err := c.validate.Struct(item); err != nil {
		return validationError(err)
	}
	if ch, ok := any(item).(checker); ok {
		if err := ch.Check(); err != nil {
			return &ValidationError{Msg: err.Error()}
		}
	}
	return nil
}

func (c *Collection[T]) mutated(ctx context.Context) {
	if c.onMutate != nil {
		c.onMutate(ctx)
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Msg: err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s failed %q (%s)", fe.Field(), fe.Tag(), fe.Param())
		}
		fields[fe.Field()] = fe.Tag()
		msgs = append(msgs, msg)
	}
	return &ValidationError{Msg: strings.Join(msgs, "; "), Fields: fields}
}
