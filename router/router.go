package router

import (
	"net/http"

	todoHandler "todolist/internal/todo"
	"todolist/internal/todo/service"
	"todolist/internal/todo/view"
	"todolist/middleware"
	"todolist/socket"
)

func Setup(svc *service.TodoService, renderer *view.Renderer, hub *socket.Hub) http.Handler {
	mux := http.NewServeMux()
	h := todoHandler.NewTodoHandler(svc, renderer)

	// Infrastructure lives under /_/ so it never shadows a list name.
	mux.HandleFunc("GET /_/ws", func(w http.ResponseWriter, r *http.Request) {
		socket.ServeWs(hub, w, r)
	})
	mux.HandleFunc("GET /_/healthz", h.Health)
	mux.Handle("GET /_/static/", http.StripPrefix("/_/static/", http.FileServerFS(view.Static())))

	// Lists
	mux.HandleFunc("GET /{$}", h.ShowDefaultList)
	mux.HandleFunc("GET /{listName}", h.ShowList)
	mux.HandleFunc("POST /{$}", h.AddItem)
	mux.HandleFunc("POST /delete", h.DeleteItem)

	return middleware.Recoverer(middleware.RequestLogger(mux))
}
