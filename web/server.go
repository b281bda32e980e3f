package web

import (
	"net/http"
	"os"
	"path"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/mogaika/geometry_source/geometry"
	"github.com/mogaika/geometry_source/store"
	"github.com/mogaika/geometry_source/utils"
)

// Server browses the resources of one extraction source
type Server struct {
	source *geometry.Source
	gs     *store.GeometryStore
	// one extraction at a time
	extracting sync.Mutex
	upgrader   websocket.Upgrader
}

func NewServer(source *geometry.Source, gs *store.GeometryStore) *Server {
	return &Server{
		source: source,
		gs:     gs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (s *Server) Router(webPath string) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/json/resources", s.HandlerResources)
	r.HandleFunc("/json/resource/{id}", s.HandlerResource)
	r.HandleFunc("/json/scene", s.HandlerScene)
	r.HandleFunc("/dump/resource/{id}", s.HandlerDumpResource)
	r.HandleFunc("/export/{id}", s.HandlerExportGLTF)
	r.HandleFunc("/preview/{id}/{format}", s.HandlerPreview)
	r.HandleFunc("/action/extract", s.HandlerExtract).Methods(http.MethodPost)
	r.HandleFunc("/action/save", s.HandlerSave).Methods(http.MethodPost)
	r.HandleFunc("/ws/status", s.HandlerStatus)

	if webPath != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(path.Join(webPath, "data"))))
	}
	return r
}

func (s *Server) ListenAndServe(addr string, webPath string) error {
	h := handlers.RecoveryHandler()(s.Router(webPath))
	h = handlers.LoggingHandler(os.Stdout, h)

	utils.LogInfo("[web] Starting server %v", addr)
	return http.ListenAndServe(addr, h)
}
