package portal

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mdmportal/pkg/authz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMaterials() []Material {
	return []Material{
		{MatCode: "MAT001", MatDesc: "Stainless Steel Bolt 10mm"},
		{MatCode: "MAT002", MatDesc: "Stainless Steel Nut 10mm"},
	}
}

func TestListView_SearchBolt(t *testing.T) {
	f := newFakeServer(t)
	api := loginAs(t, f, "Admin")
	f.reply(http.MethodGet, "/api/materials/", http.StatusOK, sampleMaterials())

	view := NewListView(api.Materials, 10)
	require.NoError(t, view.Reload(context.Background()))

	view.SetSearch("bolt")
	items := view.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "MAT001", items[0].MatCode)

	view.SetSearch("STAINLESS")
	assert.Len(t, view.Items(), 2)
}

func TestListView_ListIsIdempotent(t *testing.T) {
	f := newFakeServer(t)
	api := loginAs(t, f, "Admin")
	var all []Material
	for i := 1; i <= 23; i++ {
		all = append(all, Material{MatCode: fmt.Sprintf("MAT%03d", i), MatDesc: fmt.Sprintf("Washer %d", i)})
	}
	f.reply(http.MethodGet, "/api/materials/", http.StatusOK, all)
	ctx := context.Background()

	view := NewListView(api.Materials, 5)
	require.NoError(t, view.Reload(ctx))
	view.SetSearch("washer 1")
	view.SetPage(2)
	first := view.Items()

	require.NoError(t, view.Reload(ctx))
	assert.Equal(t, first, view.Items())
	assert.Equal(t, 2, view.Page())
	// "Washer 1" and "Washer 10".."Washer 19"
	assert.Len(t, view.Filtered(), 11)
	assert.Equal(t, 3, view.PageCount())
}

func TestListView_SearchResetsPage(t *testing.T) {
	f := newFakeServer(t)
	api := loginAs(t, f, "Admin")
	var all []Material
	for i := 1; i <= 30; i++ {
		all = append(all, Material{MatCode: fmt.Sprintf("M%02d", i), MatDesc: "bolt"})
	}
	f.reply(http.MethodGet, "/api/materials/", http.StatusOK, all)

	view := NewListView(api.Materials, 10)
	require.NoError(t, view.Reload(context.Background()))
	view.SetPage(3)
	assert.Equal(t, 3, view.Page())

	view.SetSearch("M3")
	assert.Equal(t, 1, view.Page())
	assert.Len(t, view.Items(), 1)

	view.SetPage(99)
	assert.Equal(t, 1, view.Page())
	view.SetPage(-1)
	assert.Equal(t, 1, view.Page())
}

// memoryMaterials is a mutable material endpoint.
type memoryMaterials struct {
	mu    sync.Mutex
	items []Material
	// afterRead, when set, runs after a GET has read the items and before
	// it answers.
	afterRead func()
}

func (m *memoryMaterials) install(f *fakeServer) {
	f.handle(http.MethodGet, "/api/materials/", func(w http.ResponseWriter, _ *http.Request) {
		m.mu.Lock()
		items := append([]Material(nil), m.items...)
		m.mu.Unlock()
		if m.afterRead != nil {
			m.afterRead()
		}
		writeEnvelope(w, http.StatusOK, items)
	})
	f.handle(http.MethodDelete, "/api/materials/{code}/", func(w http.ResponseWriter, r *http.Request) {
		code := r.PathValue("code")
		if code == "LOCKED" {
			writeJSON(w, http.StatusConflict, map[string]interface{}{"status": "error", "error": "material is referenced"})
			return
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		kept := m.items[:0]
		for _, it := range m.items {
			if it.MatCode != code {
				kept = append(kept, it)
			}
		}
		m.items = kept
		writeEnvelope(w, http.StatusOK, map[string]string{"message": "Deleted"})
	})
}

func TestListView_ReloadsAfterMutationOnly(t *testing.T) {
	f := newFakeServer(t)
	api := loginAs(t, f, "Admin", grantAll(authz.ResourceMaterial, "Admin"))
	store := &memoryMaterials{items: append(sampleMaterials(), Material{MatCode: "LOCKED", MatDesc: "in use"})}
	store.install(f)
	ctx := context.Background()

	view := NewListView(api.Materials, 10)
	require.NoError(t, view.Reload(ctx))
	require.Len(t, view.Items(), 3)
	reloads := f.count(http.MethodGet, "/api/materials/")

	require.NoError(t, view.Delete(ctx, "MAT002"))
	assert.Equal(t, reloads+1, f.count(http.MethodGet, "/api/materials/"))
	assert.Len(t, view.Items(), 2)

	err := view.Delete(ctx, "LOCKED")
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, reloads+1, f.count(http.MethodGet, "/api/materials/"))
	assert.Len(t, view.Items(), 2)
	assert.False(t, view.Saving())
}

func TestListView_MutationDuringReloadRefetchesAfterIt(t *testing.T) {
	f := newFakeServer(t)
	api := loginAs(t, f, "Admin", grantAll(authz.ResourceMaterial, "Admin"))
	store := &memoryMaterials{items: sampleMaterials()}
	entered := make(chan struct{})
	release := make(chan struct{})
	var reads atomic.Int32
	store.afterRead = func() {
		if reads.Add(1) == 1 {
			close(entered)
			<-release
		}
	}
	store.install(f)
	ctx := context.Background()

	view := NewListView(api.Materials, 10)
	reloadErr := make(chan error, 1)
	go func() { reloadErr <- view.Reload(ctx) }()
	<-entered

	deleteErr := make(chan error, 1)
	go func() { deleteErr <- view.Delete(ctx, "MAT002") }()
	require.Eventually(t, func() bool {
		return f.count(http.MethodDelete, "/api/materials/MAT002/") == 1 && !view.Saving()
	}, 2*time.Second, 5*time.Millisecond)
	close(release)

	// The first reload read the list before the delete and still succeeds.
	require.NoError(t, <-reloadErr)
	require.NoError(t, <-deleteErr)

	items := view.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "MAT001", items[0].MatCode)
	assert.Equal(t, int32(2), reads.Load())
	assert.False(t, view.Loading())
}

func TestListView_ItemsAreCopies(t *testing.T) {
	f := newFakeServer(t)
	api := loginAs(t, f, "Admin")
	f.reply(http.MethodGet, "/api/materials/", http.StatusOK, sampleMaterials())

	view := NewListView(api.Materials, 10)
	require.NoError(t, view.Reload(context.Background()))

	items := view.Items()
	items[0].MatDesc = "changed"
	filtered := view.Filtered()
	filtered[1].MatDesc = "changed"

	assert.Equal(t, sampleMaterials(), view.Filtered())
	assert.Equal(t, sampleMaterials(), view.Items())
}

func TestListView_BusyFlags(t *testing.T) {
	f := newFakeServer(t)
	api := loginAs(t, f, "Admin")
	release := make(chan struct{})
	entered := make(chan struct{})
	f.handle(http.MethodGet, "/api/materials/", func(w http.ResponseWriter, _ *http.Request) {
		close(entered)
		<-release
		writeEnvelope(w, http.StatusOK, sampleMaterials())
	})

	view := NewListView(api.Materials, 10)
	errc := make(chan error, 1)
	go func() { errc <- view.Reload(context.Background()) }()

	<-entered
	assert.True(t, view.Loading())
	assert.ErrorIs(t, view.Reload(context.Background()), ErrBusy)
	close(release)
	require.NoError(t, <-errc)
	assert.False(t, view.Loading())
	assert.Len(t, view.Items(), 2)
}

func TestFilter_EmptyTermKeepsAll(t *testing.T) {
	items := sampleMaterials()
	got := Filter(items, "  ", func(m *Material) []string { return []string{m.MatDesc} })
	assert.Equal(t, items, got)
}
