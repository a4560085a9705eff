package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"freight-exchange-api-server/internal/auth"
	"freight-exchange-api-server/internal/models"

	"github.com/gin-gonic/gin"
)

func protectedRouter(secret string, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/", Authenticate(secret))
	if len(roles) > 0 {
		group.Use(Authorize(roles...))
	}
	group.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.GetString("user_id")})
	})
	return router
}

func request(router *gin.Engine, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	const secret = "s3cret"
	token, err := auth.GenerateJWT("USR-1", "a@example.com", models.RoleCarrier, secret, "1h")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", token, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong secret", mustToken(t, "other-secret"), http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	router := protectedRouter(secret)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := request(router, tc.header); w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func mustToken(t *testing.T, secret string) string {
	t.Helper()
	token, err := auth.GenerateJWT("USR-1", "a@example.com", models.RoleCarrier, secret, "1h")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return "Bearer " + token
}

func TestAuthorizeRoles(t *testing.T) {
	const secret = "s3cret"
	router := protectedRouter(secret, models.RoleShipper)

	carrierToken, _ := auth.GenerateJWT("USR-1", "c@example.com", models.RoleCarrier, secret, "1h")
	if w := request(router, "Bearer "+carrierToken); w.Code != http.StatusForbidden {
		t.Errorf("carrier on shipper route: status = %d, want 403", w.Code)
	}

	shipperToken, _ := auth.GenerateJWT("USR-2", "s@example.com", models.RoleShipper, secret, "1h")
	if w := request(router, "Bearer "+shipperToken); w.Code != http.StatusOK {
		t.Errorf("shipper on shipper route: status = %d, want 200", w.Code)
	}
}
