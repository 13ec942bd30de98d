package ledger

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountsAPI(t *testing.T) (http.Handler, *mockRepository) {
	t.Helper()
	repo := newMockRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := chi.NewRouter()
	NewHandler(logger, NewService(repo, nil, logger)).Routes(router)
	return router, repo
}

func TestOpenAccountEndpoint(t *testing.T) {
	api, _ := newAccountsAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/accounts",
		strings.NewReader(`{"holderId":"holder-1","type":"CHECKING","openingBalance":"250.75"}`))
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body accountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "GTB00100000", body.Number)
	assert.Equal(t, TypeChecking, body.Type)
	assert.Equal(t, StatusActive, body.Status)
	assert.Equal(t, "250.75", body.Balance)
	assert.Equal(t, "GTQ", body.Currency)
}

func TestOpenAccountEndpointValidation(t *testing.T) {
	api, _ := newAccountsAPI(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing holder", `{"type":"SAVINGS"}`},
		{"unknown type", `{"holderId":"holder-1","type":"VAULT"}`},
		{"unknown currency", `{"holderId":"holder-1","currency":"EUR"}`},
		{"bad opening balance", `{"holderId":"holder-1","openingBalance":"lots"}`},
		{"negative opening balance", `{"holderId":"holder-1","openingBalance":"-10"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/accounts", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			api.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetAccountEndpoint(t *testing.T) {
	api, repo := newAccountsAPI(t)
	repo.accounts["GTB00000001"] = &Account{
		Number: "GTB00000001", HolderID: "holder-1",
		Type: TypeSavings, Currency: "GTQ", Status: StatusActive,
	}

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/GTB00000001", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/GTB09999999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelAccountEndpoint(t *testing.T) {
	api, repo := newAccountsAPI(t)
	repo.accounts["GTB00000001"] = &Account{
		Number: "GTB00000001", HolderID: "holder-1", Status: StatusActive,
	}

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/accounts/GTB00000001", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusCancelled, repo.accounts["GTB00000001"].Status)
}
