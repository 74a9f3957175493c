package service

import (
	"context"
	"errors"
	"testing"

	"mdmportal/internal/logger"
	"mdmportal/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func uintPtr(v uint) *uint    { return &v }

func newRequestFixture(reqs ...model.Request) (RequestService, *fakeRequestRepo, *recordingPublisher) {
	repo := newFakeRequestRepo(reqs...)
	pub := &recordingPublisher{}
	svc := NewRequestService(repo, fakeTx{}, NewAuditService(&fakeAuditRepo{}), pub, logger.Discard())
	return svc, repo, pub
}

var mdgt = Actor{EmpID: 2, Name: "gov", Role: model.RoleMDGT}

func TestRequestUpdate_MDGTCannotCloseWithoutSapItem(t *testing.T) {
	svc, _, _ := newRequestFixture(model.Request{RequestID: 1, Title: "New bolt", Status: model.StatusOpen, RequestStatus: model.PriorityLow})

	_, err := svc.Update(context.Background(), mdgt, 1, UpdateRequestDTO{Status: strPtr(model.StatusClosed)})
	assert.ErrorIs(t, err, ErrInvalid)

	got, err := svc.Update(context.Background(), Actor{Name: "admin", Role: model.RoleAdmin}, 1, UpdateRequestDTO{Status: strPtr(model.StatusClosed)})
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, got.Status)
}

func TestRequestUpdate_MDGTClosesAfterSapAssigned(t *testing.T) {
	svc, _, _ := newRequestFixture(model.Request{RequestID: 1, Title: "New bolt", Status: model.StatusOpen})

	_, err := svc.AssignSapItem(context.Background(), mdgt, 1, " SAP-42 ")
	require.NoError(t, err)

	got, err := svc.Update(context.Background(), mdgt, 1, UpdateRequestDTO{Status: strPtr(model.StatusClosed), Notes: strPtr("done")})
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, got.Status)
	assert.Equal(t, "SAP-42", *got.SapItem)
	assert.Equal(t, "done", got.Notes)
}

func TestRequestUpdate_VersionConflict(t *testing.T) {
	svc, repo, _ := newRequestFixture(model.Request{RequestID: 1, Title: "t", Status: model.StatusOpen, Version: 3})

	_, err := svc.Update(context.Background(), mdgt, 1, UpdateRequestDTO{Notes: strPtr("stale"), Version: uintPtr(2)})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Empty(t, repo.reqs[1].Notes)

	got, err := svc.Update(context.Background(), mdgt, 1, UpdateRequestDTO{Notes: strPtr("fresh"), Version: uintPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, uint(4), got.Version)

	got, err = svc.Update(context.Background(), mdgt, 1, UpdateRequestDTO{Notes: strPtr("blind")})
	require.NoError(t, err)
	assert.Equal(t, "blind", got.Notes)
}

func TestRequestUpdate_RejectsUnknownValues(t *testing.T) {
	svc, _, _ := newRequestFixture(model.Request{RequestID: 1, Title: "t", Status: model.StatusOpen})

	_, err := svc.Update(context.Background(), mdgt, 1, UpdateRequestDTO{Status: strPtr("Pending")})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = svc.Update(context.Background(), mdgt, 1, UpdateRequestDTO{RequestStatus: strPtr("Urgent")})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = svc.Update(context.Background(), mdgt, 2, UpdateRequestDTO{Notes: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignSapItem_Guards(t *testing.T) {
	svc, _, _ := newRequestFixture(model.Request{RequestID: 1, Title: "t", Status: model.StatusOpen})

	_, err := svc.AssignSapItem(context.Background(), Actor{Role: model.RoleEmployee}, 1, "SAP-1")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.AssignSapItem(context.Background(), mdgt, 1, "  ")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = svc.AssignSapItem(context.Background(), mdgt, 7, "SAP-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRequest_Defaults(t *testing.T) {
	svc, _, _ := newRequestFixture()

	got, err := svc.Create(context.Background(), Actor{Name: "ana"}, CreateRequestDTO{Title: "Need a type"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, got.Status)
	assert.Equal(t, model.PriorityMedium, got.RequestStatus)
	assert.Equal(t, uint(1), got.Version)

	_, err = svc.Create(context.Background(), Actor{}, CreateRequestDTO{Title: "x", RequestStatus: "Urgent"})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestPostMessage_StoresThenPublishes(t *testing.T) {
	svc, repo, pub := newRequestFixture(model.Request{RequestID: 1, Title: "t"})

	msg, err := svc.PostMessage(context.Background(), Actor{Name: "ana"}, 1, "hello")
	require.NoError(t, err)
	assert.Equal(t, "ana", msg.Sender)
	require.Len(t, repo.msgs, 1)
	require.Len(t, pub.published, 1)
	assert.Equal(t, msg.ID, pub.published[0].ID)

	pub.err = errors.New("redis down")
	_, err = svc.PostMessage(context.Background(), Actor{Name: "ana"}, 1, "again")
	require.NoError(t, err)
	assert.Len(t, repo.msgs, 2)

	_, err = svc.PostMessage(context.Background(), Actor{Name: "ana"}, 1, "   ")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = svc.PostMessage(context.Background(), Actor{Name: "ana"}, 5, "hi")
	assert.ErrorIs(t, err, ErrNotFound)

	msgs, err := svc.ListMessages(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}
