package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, claims Claims, secret []byte) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func authRouter(opts AuthOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(opts))
	r.GET("/whoami", func(c *gin.Context) {
		uid, _ := c.Get("userID")
		role, _ := c.Get("role")
		c.JSON(http.StatusOK, gin.H{"user": uid, "role": role})
	})
	return r
}

func TestAuth_ValidToken(t *testing.T) {
	r := authRouter(AuthOptions{Secret: testSecret, Required: true})

	tok := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acc-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "admin",
	}, testSecret)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	r := authRouter(AuthOptions{Secret: testSecret, Required: true})

	tok := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acc-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}, testSecret)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestAuth_WrongSecret(t *testing.T) {
	r := authRouter(AuthOptions{Secret: testSecret, Required: true})

	tok := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acc-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, []byte("other-secret"))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestAuth_MissingToken(t *testing.T) {
	// Required: reject.
	r := authRouter(AuthOptions{Secret: testSecret, Required: true})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("required status = %d", w.Code)
	}

	// Optional: anonymous pass-through.
	r2 := authRouter(AuthOptions{Secret: testSecret, Required: false})
	w2 := httptest.NewRecorder()
	r2.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	if w2.Code != http.StatusOK {
		t.Fatalf("optional status = %d", w2.Code)
	}
}

func TestAuth_BadScheme(t *testing.T) {
	r := authRouter(AuthOptions{Secret: testSecret})
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestAuth_DemoHeaderMode(t *testing.T) {
	r := gin.New()
	r.Use(Auth(AuthOptions{})) // no secret
	r.GET("/whoami", func(c *gin.Context) {
		uid, _ := c.Get("userID")
		c.JSON(http.StatusOK, gin.H{"user": uid})
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-ID", "demo-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body := w.Body.String(); body != `{"user":"demo-42"}` {
		t.Fatalf("body = %s", body)
	}
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	build := func(role any) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			if role != nil {
				c.Set("role", role)
			}
			c.Next()
		})
		r.Use(RequireAdmin())
		r.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	// admin passes
	w := httptest.NewRecorder()
	build("admin").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("admin status = %d", w.Code)
	}

	// staff rejected
	w2 := httptest.NewRecorder()
	build("staff").ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if w2.Code != http.StatusForbidden {
		t.Fatalf("staff status = %d", w2.Code)
	}

	// no role at all (demo mode): skipped
	w3 := httptest.NewRecorder()
	build(nil).ServeHTTP(w3, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if w3.Code != http.StatusOK {
		t.Fatalf("demo status = %d", w3.Code)
	}
}
