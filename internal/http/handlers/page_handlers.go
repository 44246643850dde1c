package handlers

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/rogerio-castellano/storefront/internal/http/middleware"
	"github.com/rogerio-castellano/storefront/internal/views"
)

const pageTitle = "Naija Style Co. | African Fashion"

// PageHandler godoc
// @Summary Storefront page
// @Description Opens a new view for the visitor and renders the page shell. Content follows on the view's stream.
// @Tags page
// @Produce html
// @Success 200 {string} string "HTML page"
// @Router / [get]
func PageHandler(w http.ResponseWriter, r *http.Request) {
	v := service.OpenView(middleware.GetVisitor(r))

	var buf bytes.Buffer
	err := service.Renderer().Page(&buf, views.PageData{
		ViewID:    v.ID,
		CSRFToken: csrf.Token(r),
		Title:     pageTitle,
	})
	if err != nil {
		slog.Error("failed to render page", "view", v.ID, "error", err)
		service.CloseView(v.ID)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	go service.Bootstrap(v.Context(), v)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
