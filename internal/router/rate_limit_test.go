package router

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/storecase-identity/internal/config"
	"github.com/storecase-identity/internal/http/response"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func TestKeyByIPAndJSONField(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth", strings.NewReader(`{"email":" Test@Example.com "}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.RemoteAddr = "1.2.3.4:5678"

	key := KeyByIPAndJSONField("email")(c)
	if key != "test@example.com|1.2.3.4" {
		t.Fatalf("key want test@example.com|1.2.3.4 got %s", key)
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read body after key extraction failed: %v", err)
	}
	if !strings.Contains(string(body), "Test@Example.com") {
		t.Fatalf("request body should be restored after reading field")
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("expected handler response body, got %s", w.Body.String())
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		name  string
		input interface{}
		want  int64
		ok    bool
	}{
		{name: "int64", input: int64(10), want: 10, ok: true},
		{name: "int", input: int(11), want: 11, ok: true},
		{name: "float64", input: float64(13.9), want: 13, ok: true},
		{name: "string", input: "bad", want: 0, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toInt64(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok want %v got %v", tc.ok, ok)
			}
			if got != tc.want {
				t.Fatalf("value want %d got %d", tc.want, got)
			}
		})
	}
}

func TestRateLimitMiddlewareBlocksAfterLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	rule := NewRateLimitRule("test", "join_email", config.RateLimitConfig{WindowSeconds: 60, MaxRequests: 2}, "error.send_code_too_many")
	r := gin.New()
	r.POST("/join/email", RateLimitMiddleware(client, rule, KeyByIPAndJSONField("email")), func(c *gin.Context) {
		response.Success(c, gin.H{"sent": true})
	})

	send := func(email string) response.Response {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/join/email", strings.NewReader(`{"email":"`+email+`"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		var resp response.Response
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response failed: %v", err)
		}
		return resp
	}

	for i := 0; i < 2; i++ {
		if resp := send("a@x.com"); resp.StatusCode != response.CodeOK {
			t.Fatalf("request %d should pass, got %+v", i+1, resp)
		}
	}
	resp := send("a@x.com")
	if resp.StatusCode != response.CodeTooManyRequests || resp.Msg != response.Message("error.send_code_too_many") {
		t.Fatalf("third request should be limited, got %+v", resp)
	}
	if !mr.Exists("test:rate:join_email:a@x.com|10.0.0.1") {
		t.Fatalf("expected rate limit key in redis, keys=%v", mr.Keys())
	}

	if resp := send("b@x.com"); resp.StatusCode != response.CodeOK {
		t.Fatalf("other email should use its own bucket, got %+v", resp)
	}
}

func TestNewRateLimitRuleDefaults(t *testing.T) {
	rule := NewRateLimitRule("sci", "login", config.RateLimitConfig{}, "error.login_too_many")
	if rule.Prefix != "sci:rate:login" || rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
		t.Fatalf("unexpected rule: %+v", rule)
	}
}
