package portal

import (
	"context"
	"slices"
	"strings"
	"sync"

	"mdmportal/pkg/pagination"
)

const DefaultPerPage = 10

// ListView holds the last fetched copy of a collection and the filter and
// page the user is looking at. Filtering and paging happen locally; the
// server returns the whole collection.
type ListView[T any] struct {
	coll    *Collection[T]
	perPage int

	mu      sync.Mutex
	all     []T
	search  string
	page    int
	loading bool
	saving  bool
	// loaded is closed when the reload in flight finishes.
	loaded chan struct{}
}

func NewListView[T any](coll *Collection[T], perPage int) *ListView[T] {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return &ListView[T]{coll: coll, perPage: perPage, page: 1}
}

// Reload refetches the collection. A reload already in flight yields ErrBusy.
func (v *ListView[T]) Reload(ctx context.Context) error {
	v.mu.Lock()
	if v.loading {
		v.mu.Unlock()
		return ErrBusy
	}
	return v.load(ctx)
}

// refresh waits out a reload already in flight and then reloads, so the
// fetch always starts after whatever the caller just changed.
func (v *ListView[T]) refresh(ctx context.Context) error {
	for {
		v.mu.Lock()
		if !v.loading {
			return v.load(ctx)
		}
		wait := v.loaded
		v.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// load is called with v.mu held and releases it.
func (v *ListView[T]) load(ctx context.Context) error {
	done := make(chan struct{})
	v.loading = true
	v.loaded = done
	v.mu.Unlock()

	items, err := v.coll.List(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false
	close(done)
	if err != nil {
		return err
	}
	v.all = items
	v.clampPage()
	return nil
}

// SetSearch changes the filter term and goes back to the first page.
func (v *ListView[T]) SetSearch(term string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.search = strings.TrimSpace(term)
	v.page = 1
}

func (v *ListView[T]) SetPage(page int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page = page
	v.clampPage()
}

func (v *ListView[T]) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

func (v *ListView[T]) Search() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.search
}

// Items returns the current page of the filtered collection.
func (v *ListView[T]) Items() []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(pagination.Slice(v.filtered(), v.page, v.perPage))
}

// Filtered returns every item matching the current term.
func (v *ListView[T]) Filtered() []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.filtered())
}

// PageCount is ceil(filtered / perPage).
func (v *ListView[T]) PageCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return pagination.PageCount(len(v.filtered()), v.perPage)
}

func (v *ListView[T]) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

func (v *ListView[T]) Saving() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.saving
}

// Create, Update and Delete run the mutation and then reload. The reload only
// starts after the mutation succeeded and after any reload already running;
// a failed mutation leaves the list as it was.
func (v *ListView[T]) Create(ctx context.Context, item T) (*T, error) {
	var created *T
	err := v.mutate(ctx, func() (err error) {
		created, err = v.coll.Create(ctx, item)
		return err
	})
	return created, err
}

func (v *ListView[T]) Update(ctx context.Context, key string, item T) (*T, error) {
	var updated *T
	err := v.mutate(ctx, func() (err error) {
		updated, err = v.coll.Update(ctx, key, item)
		return err
	})
	return updated, err
}

func (v *ListView[T]) Delete(ctx context.Context, key string) error {
	return v.mutate(ctx, func() error {
		return v.coll.Delete(ctx, key)
	})
}

func (v *ListView[T]) mutate(ctx context.Context, fn func() error) error {
	v.mu.Lock()
	if v.saving {
		v.mu.Unlock()
		return ErrBusy
	}
	v.saving = true
	v.mu.Unlock()

	err := fn()

	v.mu.Lock()
	v.saving = false
	v.mu.Unlock()
	if err != nil {
		return err
	}
	return v.refresh(ctx)
}

func (v *ListView[T]) filtered() []T {
	if v.search == "" || v.coll.kind.SearchFields == nil {
		return v.all
	}
	return Filter(v.all, v.search, v.coll.kind.SearchFields)
}

func (v *ListView[T]) clampPage() {
	if v.page < 1 {
		v.page = 1
	}
	if n := pagination.PageCount(len(v.filtered()), v.perPage); n > 0 && v.page > n {
		v.page = n
	}
}

// Filter keeps the items where any search field contains term,
// case-insensitively.
func Filter[T any](items []T, term string, fields func(*T) []string) []T {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for i := range items {
		for _, f := range fields(&items[i]) {
			if strings.Contains(strings.ToLower(f), term) {
				out = append(out, items[i])
				break
			}
		}
	}
	return out
}
