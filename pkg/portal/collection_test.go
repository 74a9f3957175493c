package portal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"

	"mdmportal/pkg/attribute"
	"mdmportal/pkg/authz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollection_DeniedMutationSendsNothing(t *testing.T) {
	f := newFakeServer(t)
	api := loginAs(t, f, "Employee")
	f.reply(http.MethodPost, "/api/emaildomains/", http.StatusCreated, EmailDomain{DomainName: "acme.test"})
	f.reply(http.MethodDelete, "/api/emaildomains/acme.test/", http.StatusOK, nil)
	ctx := context.Background()

	_, err := api.EmailDomains.Create(ctx, EmailDomain{DomainName: "acme.test"})
	var pe *PermissionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, authz.ResourceEmail, pe.Resource)
	assert.Equal(t, authz.ActionCreate, pe.Action)

	err = api.EmailDomains.Delete(ctx, "acme.test")
	assert.ErrorAs(t, err, &pe)

	assert.Zero(t, f.count(http.MethodPost, "/api/emaildomains/"))
	assert.Zero(t, f.count(http.MethodDelete, "/api/emaildomains/acme.test/"))
}

func TestCollection_ValidatesBeforeDispatch(t *testing.T) {
	f := newFakeServer(t)
	api := loginAs(t, f, "Admin", grantAll(authz.ResourceMaterial, "Admin"), grantAll(authz.ResourceValidation, "Admin"))
	ctx := context.Background()

	_, err := api.Materials.Create(ctx, Material{MatCode: "MAT001"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "required", ve.Fields["mat_desc"])

	_, err = api.ValidationLists.Create(ctx, ValidationList{Listname: "colours", Listvalue: []string{"red", ""}})
	assert.ErrorAs(t, err, &ve)

	_, err = api.Materials.Update(ctx, "", Material{MatCode: "X", MatDesc: "y"})
	assert.ErrorAs(t, err, &ve)

	assert.Zero(t, f.count(http.MethodPost, "/api/materials/"))
	assert.Zero(t, f.count(http.MethodPost, "/api/validationlists/"))
}

func TestCollection_UngatedRequestCreate(t *testing.T) {
	f := newFakeServer(t)
	api := loginAs(t, f, "Employee")
	f.reply(http.MethodPost, "/api/requests/", http.StatusCreated, Request{RequestID: 9, Title: "new bolt", Version: 1})

	created, err := api.Requests.Create(context.Background(), Request{Title: "new bolt", RequestStatus: PriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, uint(9), created.RequestID)

	err = api.Requests.Delete(context.Background(), "9")
	var pe *PermissionError
	assert.ErrorAs(t, err, &pe)
}

func TestCollection_PermissionChangeReloadsSnapshot(t *testing.T) {
	f := newFakeServer(t)
	api := loginAs(t, f, "Admin", grantAll(authz.ResourcePermission, "Admin"))
	f.reply(http.MethodPost, "/permissions/create/", http.StatusCreated, authz.Permission{ID: 2, Name: "Materials"})
	before := f.count(http.MethodGet, "/permissions/")

	_, err := api.Permissions.Create(context.Background(), authz.Permission{
		Name:          "Materials",
		Resource:      authz.ResourceMaterial,
		TemplateRoles: map[string]authz.Grant{"Admin": {Enabled: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, before+1, f.count(http.MethodGet, "/permissions/"))
}

// attributeStore keeps what was posted and lists it back, like the server.
type attributeStore struct {
	mu    sync.Mutex
	items []MaterialAttribute
}

func (s *attributeStore) install(f *fakeServer) {
	f.handle(http.MethodPost, "/api/matattributes/", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var item MaterialAttribute
		if err := json.Unmarshal(raw, &item); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		s.mu.Lock()
		s.items = append(s.items, item)
		s.mu.Unlock()
		writeEnvelope(w, http.StatusCreated, item)
	})
	f.handle(http.MethodGet, "/api/matattributes/", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeEnvelope(w, http.StatusOK, s.items)
	})
}

func TestMaterialAttribute_UnitPresentIffNumeric(t *testing.T) {
	f := newFakeServer(t)
	api := loginAs(t, f, "Admin", grantAll(authz.ResourceAttribute, "Admin"))
	store := &attributeStore{}
	store.install(f)
	ctx := context.Background()
	maxLen := 4

	_, err := api.MaterialAttributes.Create(ctx, MaterialAttribute{
		MgrpCode: "G1",
		Attributes: attribute.Set{
			"Diameter": {Values: []string{"10", "12.5"}, Validation: attribute.Numeric, Unit: "mm"},
			"Finish":   {Values: []string{"Zinc"}, Validation: attribute.Alpha, MaxLength: &maxLen},
			"Grade":    {Values: []string{"A2"}},
		},
	})
	require.NoError(t, err)

	// rejected locally: numeric without unit, unit without numeric
	_, err = api.MaterialAttributes.Create(ctx, MaterialAttribute{
		MgrpCode:   "G2",
		Attributes: attribute.Set{"Length": {Values: []string{"5"}, Validation: attribute.Numeric}},
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	_, err = api.MaterialAttributes.Create(ctx, MaterialAttribute{
		MgrpCode:   "G3",
		Attributes: attribute.Set{"Colour": {Values: []string{"Red"}, Validation: attribute.Alpha, Unit: "nm"}},
	})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 1, f.count(http.MethodPost, "/api/matattributes/"))

	fetched, err := api.MaterialAttributes.List(ctx)
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	for name, spec := range fetched[0].Attributes {
		assert.Equal(t, spec.Validation == attribute.Numeric, spec.Unit != "", name)
	}
}
