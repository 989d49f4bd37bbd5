package shared

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/storecase-identity/internal/constants"
	"github.com/storecase-identity/internal/http/response"

	"github.com/gin-gonic/gin"
)

func statusCodeOf(t *testing.T, rec *httptest.ResponseRecorder) int {
	t.Helper()
	var body response.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body failed: %v", err)
	}
	return body.StatusCode
}

func TestGetUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name     string
		value    interface{}
		set      bool
		wantOK   bool
		wantCode int
	}{
		{name: "uint", value: uint(7), set: true, wantOK: true},
		{name: "int", value: 7, set: true, wantOK: true},
		{name: "missing", set: false, wantCode: response.CodeUnauthorized},
		{name: "zero", value: uint(0), set: true, wantCode: response.CodeBadRequest},
		{name: "string", value: "7", set: true, wantCode: response.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			if tc.set {
				c.Set(constants.ContextKeyUserID, tc.value)
			}
			id, ok := GetUserID(c)
			if ok != tc.wantOK {
				t.Fatalf("ok want %v got %v", tc.wantOK, ok)
			}
			if ok {
				if id != 7 {
					t.Fatalf("want id 7 got %d", id)
				}
				return
			}
			if got := statusCodeOf(t, rec); got != tc.wantCode {
				t.Fatalf("status code want %d got %d", tc.wantCode, got)
			}
		})
	}
}
