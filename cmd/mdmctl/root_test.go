package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"mdmportal/pkg/portal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAPI(t *testing.T) *portal.API {
	t.Helper()
	client, err := portal.NewClient("http://127.0.0.1:1")
	require.NoError(t, err)
	return portal.New(client)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"auth", &portal.AuthError{Msg: "token expired"}, "Not logged in or session expired: token expired"},
		{"validation", fmt.Errorf("save: %w", &portal.ValidationError{Msg: "title is required"}), "Rejected: title is required"},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describe(tt.err))
		})
	}

	msg := describe(&portal.PermissionError{Resource: "email", Action: "delete"})
	assert.Contains(t, msg, "You do not have permission")
}

func TestLookup(t *testing.T) {
	api := testAPI(t)

	names := entityNames(api)
	assert.Contains(t, names, "materials")
	assert.Contains(t, names, "validationlists")
	assert.IsIncreasing(t, names)

	_, err := lookup(api, "materials")
	require.NoError(t, err)

	_, err = lookup(api, "widgets")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown entity")
}

func TestParseEmpID(t *testing.T) {
	id, err := parseEmpID("42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"0", "-3", "abc", ""} {
		_, err := parseEmpID(bad)
		assert.Error(t, err, bad)
	}
}

func TestTokenFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := loadToken()
	require.Error(t, err)

	require.NoError(t, saveToken("abc.def.ghi\n"))
	token, err := loadToken()
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	require.NoError(t, removeToken())
	require.NoError(t, removeToken())
	_, err = loadToken()
	assert.Error(t, err)
}

func TestPrintRequest(t *testing.T) {
	sap := "SAP-100"
	var buf bytes.Buffer
	printRequest(&buf, &portal.Request{RequestID: 7, Title: "New bolt", Status: portal.StatusOpen, RequestStatus: portal.PriorityHigh, SapItem: &sap, Version: 3})

	out := buf.String()
	assert.Contains(t, out, "#7 New bolt")
	assert.Contains(t, out, "sap item: SAP-100")
	assert.NotContains(t, out, "notes:")
}
