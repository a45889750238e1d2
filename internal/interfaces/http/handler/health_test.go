package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"worldforge/internal/config"
	"worldforge/internal/infrastructure/imagegen"

	"github.com/gin-gonic/gin"
)

type checker bool

func (c checker) Configured() bool { return bool(c) }

func TestReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	images, err := imagegen.New(context.Background(), config.ImageConfig{})
	if err != nil {
		t.Fatalf("imagegen.New: %v", err)
	}
	cases := []struct {
		name  string
		text  ModelChecker
		image ModelChecker
		want  int
	}{
		{"ready", checker(true), checker(true), http.StatusOK},
		{"no text provider", checker(false), checker(true), http.StatusServiceUnavailable},
		{"nil text checker", nil, checker(true), http.StatusServiceUnavailable},
		{"no image key", checker(true), checker(false), http.StatusServiceUnavailable},
		{"nil image checker", checker(true), nil, http.StatusServiceUnavailable},
		{"image client without api key", checker(true), images, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/ready", NewHealthHandler("test", tc.text, tc.image).Ready)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			if w.Code != tc.want {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}
