package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	app "github.com/erp/commerce-sync/internal/application/integration"
	"github.com/erp/commerce-sync/internal/domain/integration"
	"github.com/erp/commerce-sync/internal/infrastructure/commerce"
	"github.com/erp/commerce-sync/internal/infrastructure/dotdigital"
)

func TestFactory_NewClients(t *testing.T) {
	f := NewFactory()
	clients, err := f.NewClients(app.Environment{
		CommerceBaseURL:       "https://shop.test",
		CommerceAdminToken:    "admin",
		DotdigitalAPIURL:      "https://r1-api.dotdigital.test/",
		DotdigitalAPIUser:     "user",
		DotdigitalAPIPassword: "pass",
	}, zap.NewNop())
	require.NoError(t, err)

	assert.IsType(t, &commerce.Client{}, clients.Commerce)
	assert.IsType(t, &dotdigital.Client{}, clients.Marketing)
}

func TestFactory_NewClientsFreshPerCall(t *testing.T) {
	f := NewFactory()
	env := app.Environment{
		CommerceBaseURL:       "https://shop.test",
		CommerceAdminToken:    "admin",
		DotdigitalAPIURL:      "https://r1-api.dotdigital.test",
		DotdigitalAPIUser:     "user",
		DotdigitalAPIPassword: "pass",
	}
	first, err := f.NewClients(env, zap.NewNop())
	require.NoError(t, err)
	second, err := f.NewClients(env, zap.NewNop())
	require.NoError(t, err)
	assert.NotSame(t, first.Commerce, second.Commerce)
}

func TestFactory_InvalidEnvironment(t *testing.T) {
	f := NewFactory()

	_, err := f.NewClients(app.Environment{DotdigitalAPIURL: "https://x", DotdigitalAPIUser: "u", DotdigitalAPIPassword: "p"}, zap.NewNop())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "commerce client:"))

	_, err = f.NewClients(app.Environment{CommerceBaseURL: "https://shop.test", CommerceAdminToken: "t"}, zap.NewNop())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "dotdigital client:"))
}

func TestFactory_ClientsReachServers(t *testing.T) {
	shop := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer admin", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]integration.Website{{ID: 1, Name: "Main Website"}})
	}))
	defer shop.Close()

	f := NewFactory(WithHTTPClient(shop.Client()))
	clients, err := f.NewClients(app.Environment{
		CommerceBaseURL:       shop.URL,
		CommerceAdminToken:    "admin",
		DotdigitalAPIURL:      shop.URL,
		DotdigitalAPIUser:     "user",
		DotdigitalAPIPassword: "pass",
	}, zap.NewNop())
	require.NoError(t, err)

	websites, err := clients.Commerce.GetWebsites(context.Background())
	require.NoError(t, err)
	require.Len(t, websites, 1)
	assert.Equal(t, "Main Website", websites[0].Name)
}

func TestDispatcher_OverridesCannotRedirectCredentials(t *testing.T) {
	var mu sync.Mutex
	var leaked, users []string
	attacker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ := r.BasicAuth()
		mu.Lock()
		leaked = append(leaked, r.URL.Path+" "+user+":"+pass)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer attacker.Close()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, _, ok := r.BasicAuth(); ok {
			mu.Lock()
			users = append(users, user)
			mu.Unlock()
		}
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "storeViews") || strings.HasSuffix(r.URL.Path, "websites") {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	env := app.Environment{
		CommerceBaseURL:          upstream.URL + "/",
		CommerceAdminToken:       "admin",
		DotdigitalAPIURL:         upstream.URL,
		DotdigitalAPIUser:        "apiuser",
		DotdigitalAPIPassword:    "secret",
		DotdigitalListSubscriber: "22",
	}
	dispatcher := app.NewDispatcher(NewFactory(), env, zap.NewNop())

	event := `{"id":"evt-1","data":{"value":{"subscriber_email":"ada@shop.test","subscriber_status":1,"store_id":1},"_metadata":{"websiteId":"1"}}}`
	result := dispatcher.Invoke(context.Background(), "subscriber", app.Params{
		Event: []byte(event),
		Env: map[string]string{
			"DOTDIGITAL_API_URL":      attacker.URL,
			"DOTDIGITAL_API_USER":     "attacker",
			"DOTDIGITAL_API_PASSWORD": "attacker",
			"COMMERCE_BASE_URL":       attacker.URL + "/",
			"COMMERCE_ADMIN_TOKEN":    "attacker",
		},
	})

	require.NoError(t, result.Err)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, leaked)
	assert.Equal(t, []string{"apiuser"}, users)
}
