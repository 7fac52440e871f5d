package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/kevinaaaquil/ontimenews/backend/apperr"
	"github.com/kevinaaaquil/ontimenews/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUserIsIdempotent(t *testing.T) {
	h := newHarness(t)
	body := map[string]string{"email": "new@ontime.test", "name": "New Reader"}

	rec := h.do(t, http.MethodPost, "/users", body, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decodeBody[map[string]any](t, rec)
	assert.NotEmpty(t, first["insertedId"])

	rec = h.do(t, http.MethodPost, "/users", body, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second := decodeBody[map[string]any](t, rec)
	v, ok := second["insertedId"]
	assert.True(t, ok, "insertedId must be present")
	assert.Nil(t, v)

	users, err := h.store.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 4)
}

func TestRegisterUserIgnoresClientRole(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodPost, "/users", map[string]string{"email": "sneaky@ontime.test", "role": "admin"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	u, err := h.store.UserByEmail(context.Background(), "sneaky@ontime.test")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)
}

func TestRegisterUserValidation(t *testing.T) {
	h := newHarness(t)
	for name, body := range map[string]any{
		"bad email":   map[string]string{"email": "not-an-email"},
		"no email":    map[string]string{"name": "x"},
		"bad photo":   map[string]string{"email": "a@ontime.test", "photo": "nope"},
		"broken json": `{"email":`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := h.do(t, http.MethodPost, "/users", body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, apperr.KindValidation, decodeBody[apperr.Body](t, rec).Kind)
		})
	}
}

func TestPromoteThenAdminStatus(t *testing.T) {
	h := newHarness(t)
	reader, err := h.store.UserByEmail(context.Background(), readerEmail)
	require.NoError(t, err)

	rec := h.do(t, http.MethodGet, "/users/admin/"+readerEmail, nil, readerEmail)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[AdminStatusResponse](t, rec).Admin)

	rec = h.do(t, http.MethodPatch, "/users/admin/"+reader.ID.Hex(), nil, adminEmail)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.RoleAdmin, decodeBody[models.User](t, rec).Role)

	rec = h.do(t, http.MethodGet, "/users/admin/"+readerEmail, nil, readerEmail)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[AdminStatusResponse](t, rec).Admin)
}

func TestAdminStatusForOtherEmailIsForbidden(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/users/admin/"+adminEmail, nil, readerEmail)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminStatusForUnregisteredCaller(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/users/admin/ghost@ontime.test", nil, "ghost@ontime.test")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[AdminStatusResponse](t, rec).Admin)
}

func TestPromoteUserErrors(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPatch, "/users/admin/not-an-id", nil, adminEmail)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPatch, "/users/admin/65f1c0ffee0000000000beef", nil, adminEmail)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListUsers(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/users", nil, adminEmail)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]models.User](t, rec), 3)
}

func TestAdminRoutesAreGuarded(t *testing.T) {
	h := newHarness(t)
	id := h.store.addArticle(models.Article{Title: "Guarded", Email: writerEmail})

	routes := []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/users", nil},
		{http.MethodPatch, "/users/admin/" + id.Hex(), nil},
		{http.MethodPatch, "/admin-articles/" + id.Hex(), nil},
		{http.MethodPatch, "/isPremium-articles/" + id.Hex(), nil},
		{http.MethodPost, "/decline/" + id.Hex(), map[string]string{"decline": "no"}},
		{http.MethodPost, "/publisher", map[string]string{"name": "Daily"}},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := h.do(t, rt.method, rt.path, rt.body, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			rec = h.do(t, rt.method, rt.path, rt.body, readerEmail)
			assert.Equal(t, http.StatusForbidden, rec.Code)
		})
	}

	a, err := h.store.ArticleByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, a.Status, "rejected calls must not change state")
	assert.Empty(t, h.store.publishers)
}

func TestStoreFailureHidesCause(t *testing.T) {
	h := newHarness(t)
	h.store.err = errors.New("connection refused by 10.0.0.7")

	rec := h.do(t, http.MethodGet, "/publisher", nil, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apperr.KindInternal, decodeBody[apperr.Body](t, rec).Kind)
	assert.NotContains(t, rec.Body.String(), "10.0.0.7")
}
