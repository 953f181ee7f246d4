package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meghkala/api/internal/domain"
)

type signupPayload struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func postJSON(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestDecodeJSON(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		var dst signupPayload
		err := decodeJSON(postJSON(`{"name":"Asha","email":"a@b.com","password":"password1"}`), &dst)
		require.NoError(t, err)
		assert.Equal(t, "Asha", dst.Name)
	})

	t.Run("empty body", func(t *testing.T) {
		var dst signupPayload
		err := decodeJSON(postJSON(""), &dst)
		require.True(t, domain.IsCode(err, domain.EINVALID))
		assert.Equal(t, "Request body is required", domain.ErrorMessage(err))
	})

	t.Run("malformed JSON", func(t *testing.T) {
		var dst signupPayload
		err := decodeJSON(postJSON(`{"name":`), &dst)
		assert.True(t, domain.IsCode(err, domain.EINVALID))
	})

	t.Run("unknown field", func(t *testing.T) {
		var dst signupPayload
		err := decodeJSON(postJSON(`{"name":"Asha","email":"a@b.com","password":"password1","admin":true}`), &dst)
		assert.True(t, domain.IsCode(err, domain.EINVALID))
	})

	t.Run("missing field", func(t *testing.T) {
		var dst signupPayload
		err := decodeJSON(postJSON(`{"email":"a@b.com","password":"password1"}`), &dst)
		require.True(t, domain.IsCode(err, domain.EINVALID))
		assert.Equal(t, "name is required", domain.ErrorMessage(err))
	})

	t.Run("bad email", func(t *testing.T) {
		var dst signupPayload
		err := decodeJSON(postJSON(`{"name":"Asha","email":"not-an-email","password":"password1"}`), &dst)
		require.True(t, domain.IsCode(err, domain.EINVALID))
		assert.Equal(t, "email must be a valid email address", domain.ErrorMessage(err))
	})

	t.Run("short password", func(t *testing.T) {
		var dst signupPayload
		err := decodeJSON(postJSON(`{"name":"Asha","email":"a@b.com","password":"short"}`), &dst)
		require.True(t, domain.IsCode(err, domain.EINVALID))
		assert.Equal(t, "password must be at least 8", domain.ErrorMessage(err))
	})
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid", domain.Invalid("test", "bad input"), http.StatusBadRequest, "invalid"},
		{"unauthorized", domain.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", domain.Forbidden("test", "no"), http.StatusForbidden, "forbidden"},
		{"not found", domain.ErrProductNotFound, http.StatusNotFound, "not_found"},
		{"conflict", domain.ErrDuplicateEmail, http.StatusConflict, "conflict"},
		{"plain error maps to internal", assert.AnError, http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestRespondError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, httptest.NewRequest(http.MethodGet, "/", nil), domain.Internal(assert.AnError, "test.op", "something broke"))

	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotContains(t, body.Error.Message, assert.AnError.Error())
}
