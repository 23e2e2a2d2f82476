package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"todolist/internal/todo/model"
	"todolist/internal/todo/service"
	"todolist/internal/todo/view"
	"todolist/pkg/logger"
)

const healthTimeout = 2 * time.Second

type TodoHandler struct {
	Service *service.TodoService
	View    *view.Renderer
	Now     func() time.Time
}

func NewTodoHandler(service *service.TodoService, renderer *view.Renderer) *TodoHandler {
	return &TodoHandler{Service: service, View: renderer, Now: time.Now}
}

// ShowDefaultList serves GET /. The first request against an empty store
// seeds the default list and redirects back here.
func (h *TodoHandler) ShowDefaultList(w http.ResponseWriter, r *http.Request) {
	items, created, err := h.Service.GetDefaultList(r.Context())
	if err != nil {
		h.fail(w, r, "show default list", err)
		return
	}
	if created {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	h.render(w, r, model.ListPage{
		DayLabel: view.DateLabel(h.Now()),
		ListName: model.DefaultListName,
		Items:    items,
	})
}

// ShowList serves GET /{listName}, creating the list on first visit.
func (h *TodoHandler) ShowList(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("listName")
	if service.IsDefaultList(raw) {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	list, created, err := h.Service.GetOrCreateList(r.Context(), raw)
	if err != nil {
		h.fail(w, r, "show list "+raw, err)
		return
	}
	if created {
		http.Redirect(w, r, service.ListPath(raw), http.StatusFound)
		return
	}

	h.render(w, r, model.ListPage{
		DayLabel: view.DayLabel(h.Now()),
		ListName: list.Name,
		Items:    list.Items,
	})
}

// AddItem serves POST / with form fields listName and newItem.
func (h *TodoHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}

	req := model.AddItemRequest{
		ListName: r.PostFormValue("listName"),
		ItemName: r.PostFormValue("newItem"),
	}
	if _, err := h.Service.AddItem(r.Context(), req); err != nil {
		h.fail(w, r, "add item", err)
		return
	}

	http.Redirect(w, r, service.ListPath(req.ListName), http.StatusFound)
}

// DeleteItem serves POST /delete with form fields checkItemId and listName.
func (h *TodoHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}

	req := model.DeleteItemRequest{
		ListName: r.PostFormValue("listName"),
		ItemID:   r.PostFormValue("checkItemId"),
	}
	if err := h.Service.DeleteItem(r.Context(), req); err != nil {
		h.fail(w, r, "delete item", err)
		return
	}

	http.Redirect(w, r, service.ListPath(req.ListName), http.StatusFound)
}

// Health serves GET /_/healthz.
func (h *TodoHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.Service.Healthy(ctx); err != nil {
		logger.Sugar.Errorf("Health check failed: %v", err)
		http.Error(w, "Database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *TodoHandler) render(w http.ResponseWriter, r *http.Request, page model.ListPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.View.RenderList(w, page); err != nil {
		h.fail(w, r, "render", err)
	}
}

// fail logs err and maps it onto a status code.
func (h *TodoHandler) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Sugar.Errorf("Handler: Failed to %s (%s %s): %v", action, r.Method, r.URL.Path, err)
	} else {
		logger.Sugar.Warnf("Handler: Rejected %s (%s %s): %v", action, r.Method, r.URL.Path, err)
	}

	msg := http.StatusText(status)
	if status == http.StatusBadRequest {
		msg = err.Error()
	}
	http.Error(w, msg, status)
}

// StatusFor maps the error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
