package api

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func registerClient(t *testing.T, cl *apiClient, email string) {
	t.Helper()

	w := cl.do(http.MethodPost, "/api/v3/auth/new", gin.H{
		"hname":    "Member",
		"email":    email,
		"password": "pw12345678",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	cl.token, _ = body["token"].(string)
	require.NotEmpty(t, cl.token)
}

func TestDeregisterWithoutPasswordLogsOut(t *testing.T) {
	_, router := newRouterFixture(t)

	cl := &apiClient{t: t, router: router}
	registerClient(t, cl, "casual@example.com")

	// No body at all: the endpoint degrades to a logout.
	w := cl.do(http.MethodPost, "/api/v3/auth/deregister", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataObject(t, w)
	require.Equal(t, true, data["logged_out"])

	// The session is gone...
	w = cl.do(http.MethodGet, "/api/v3/users", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// ...but the account survives and can log back in.
	cl.token = ""
	w = cl.do(http.MethodPost, "/api/v3/auth/login", gin.H{
		"email":    "casual@example.com",
		"password": "pw12345678",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestDeregisterWithPasswordDeactivatesAccount(t *testing.T) {
	_, router := newRouterFixture(t)

	cl := &apiClient{t: t, router: router}
	registerClient(t, cl, "leaver@example.com")

	w := cl.do(http.MethodPost, "/api/v3/auth/deregister", gin.H{"password": "wrong-pass"})
	require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())

	w = cl.do(http.MethodPost, "/api/v3/auth/deregister", gin.H{"password": "pw12345678"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataObject(t, w)
	require.Equal(t, true, data["deregistered"])

	cl.token = ""
	w = cl.do(http.MethodPost, "/api/v3/auth/login", gin.H{
		"email":    "leaver@example.com",
		"password": "pw12345678",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
}
