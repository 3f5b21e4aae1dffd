package dotdigital

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/commerce-sync/internal/domain/integration"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{
		APIURL:   server.URL + "/",
		Username: "apiuser-1@apiconnector.com",
		Password: "secret",
	}, WithHTTPClient(server.Client()))
	require.NoError(t, err)
	return client
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{APIURL: " https://r1-api.dotdigital.com/ ", Username: "u", Password: "p"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://r1-api.dotdigital.com", cfg.APIURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)

	assert.ErrorIs(t, (&Config{Username: "u", Password: "p"}).Validate(), ErrConfigMissingAPIURL)
	assert.ErrorIs(t, (&Config{APIURL: "https://r1-api.test"}).Validate(), ErrConfigMissingCredentials)
}

func TestClient_GetContactDataFields_Cached(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2/data-fields", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "apiuser-1@apiconnector.com", user)
		assert.Equal(t, "secret", pass)
		_, _ = w.Write([]byte(`[
			{"name": "FIRSTNAME", "type": "String", "visibility": "Private", "defaultValue": null},
			{"name": "STORE_NAME", "type": "String", "visibility": "Private"}
		]`))
	})

	for i := 0; i < 2; i++ {
		fields, err := client.GetContactDataFields(context.Background())
		require.NoError(t, err)
		require.Len(t, fields, 2)
		assert.Equal(t, "FIRSTNAME", fields[0].Name)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_PatchContactByEmail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/contacts/v3/email/jane+shop@example.com", r.URL.Path)
		assert.Equal(t, "overwrite", r.URL.Query().Get("merge-option"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"matchIdentifier": "email",
			"identifiers": {"email": "jane+shop@example.com"},
			"dataFields": {"FIRSTNAME": "Jane"},
			"lists": [5]
		}`, string(body))

		_, _ = w.Write([]byte(`{"contactId": 1001, "status": "subscribed"}`))
	})

	contact := integration.NewContact("jane+shop@example.com").
		WithDataFields(map[string]any{"FIRSTNAME": "Jane"}).
		WithLists(5)

	resp, err := client.PatchContactByEmail(context.Background(), "jane+shop@example.com", contact, "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"contactId": 1001, "status": "subscribed"}`, string(resp))
}

func TestClient_PutInsight(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		paths = append(paths, r.URL.EscapedPath())
		w.WriteHeader(http.StatusNoContent)
	})

	ctx := context.Background()
	resp, err := client.PutAccountInsight(ctx, "Catalog_Default", "12", map[string]any{"id": 12})
	require.NoError(t, err)
	assert.Nil(t, resp)

	_, err = client.PutContactInsight(ctx, "jane@example.com", integration.OrdersCollection, "000/42", map[string]any{"id": "000/42"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/insightData/v3/account/Catalog_Default/12",
		"/insightData/v3/contacts/email/jane@example.com/Orders/000%2F42",
	}, paths)
}

func TestClient_ImportInsightData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/insightData/v3/import", r.URL.Path)

		var req integration.InsightImport
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Catalog_Default", req.CollectionName)
		assert.Equal(t, integration.CollectionScopeAccount, req.CollectionScope)
		require.Len(t, req.Records, 1)

		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"importId": "a1b2"}`))
	})

	resp, err := client.ImportInsightData(context.Background(), integration.NewCatalogImport("Catalog_Default", "12", map[string]any{"id": 12}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"importId": "a1b2"}`, string(resp))
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            string
		wantCode        string
		wantDescription string
	}{
		{
			name:            "v3 error document",
			status:          http.StatusNotFound,
			body:            `{"errorCode": "insightData:collectionNotFound", "description": "Collection Catalog_Default not found"}`,
			wantCode:        "insightData:collectionNotFound",
			wantDescription: "Collection Catalog_Default not found",
		},
		{
			name:            "v2 error document",
			status:          http.StatusBadRequest,
			body:            `{"message": "ERROR_CONTACT_INVALID"}`,
			wantDescription: "ERROR_CONTACT_INVALID",
		},
		{
			name:            "plain text",
			status:          http.StatusBadGateway,
			body:            "upstream unavailable",
			wantDescription: "upstream unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.PutAccountInsight(context.Background(), "Catalog_Default", "1", map[string]any{})
			require.Error(t, err)

			var httpErr *integration.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.wantCode, httpErr.Code)
			assert.Equal(t, tt.wantDescription, httpErr.Description)
			assert.Equal(t, http.MethodPut, httpErr.Method)
			assert.Equal(t, tt.status, integration.StatusCode(err))
		})
	}
}

func TestClient_InvalidDataFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"fields": []}`))
	})

	_, err := client.GetContactDataFields(context.Background())
	assert.ErrorIs(t, err, integration.ErrRemoteInvalidPayload)
}
