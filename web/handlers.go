package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mogaika/geometry_source/interop"
	"github.com/mogaika/geometry_source/scene"
	"github.com/mogaika/geometry_source/status"
	"github.com/mogaika/geometry_source/store"
	"github.com/mogaika/geometry_source/txr"
	"github.com/mogaika/geometry_source/utils"
	"github.com/mogaika/geometry_source/utils/gltfutils"
	"github.com/mogaika/geometry_source/webutils"
)

type meshSummary struct {
	Name            string
	Path            string
	PrimitiveArrays []interop.PrimitiveArray
	Accessors       int
	BufferViews     int
	Buffers         int
	Skinned         bool
}

func (s *Server) meta(id interop.ResourceID) (store.Meta, bool) {
	for _, m := range s.gs.Resources() {
		if m.ID == id {
			return m, true
		}
	}
	return store.Meta{}, false
}

// record returns the stored value of a resource. Blobs are left out
// unless raw is set.
func (s *Server) record(id interop.ResourceID, raw bool) (interface{}, error) {
	s.gs.EnsureResourceIsLoaded(id)
	meta, ok := s.meta(id)
	if !ok {
		return nil, errors.Errorf("Resource %d is not stored", id)
	}

	var v interface{}
	switch meta.Kind {
	case store.KindNode:
		v, ok = s.gs.Node(id)
	case store.KindMesh:
		var m *interop.Mesh
		if m, ok = s.gs.Mesh(id, exportAxes); ok {
			v = m
			if !raw {
				v = &meshSummary{
					Name:            m.Name,
					Path:            m.Path,
					PrimitiveArrays: m.PrimitiveArrays,
					Accessors:       len(m.Accessors),
					BufferViews:     len(m.BufferViews),
					Buffers:         len(m.Buffers),
					Skinned:         m.InverseBindMatricesAccessor != 0,
				}
			}
		}
	case store.KindMaterial:
		v, ok = s.gs.Material(id)
	case store.KindTexture:
		var t *interop.Texture
		if t, ok = s.gs.Texture(id); ok {
			v = t
			if !raw {
				noData := *t
				noData.Data = nil
				v = &noData
			}
		}
	case store.KindSkeleton:
		v, ok = s.gs.Skeleton(id)
	case store.KindTextCanvas:
		v, ok = s.gs.TextCanvas(id)
	case store.KindFont:
		v, ok = s.gs.GetFontAtlas(meta.Path)
	}
	if !ok {
		return nil, errors.Errorf("%s %d could not be loaded", meta.Kind, id)
	}
	return v, nil
}

func (s *Server) HandlerResources(w http.ResponseWriter, r *http.Request) {
	resources := s.gs.Resources()
	if kind := r.URL.Query().Get("kind"); kind != "" {
		filtered := resources[:0]
		for _, m := range resources {
			if string(m.Kind) == kind {
				filtered = append(filtered, m)
			}
		}
		resources = filtered
	}
	webutils.WriteJson(w, resources)
}

func (s *Server) HandlerResource(w http.ResponseWriter, r *http.Request) {
	id, err := webutils.ResourceID(r)
	if err != nil {
		webutils.WriteErrorCode(w, http.StatusBadRequest, err)
		return
	}
	v, err := s.record(id, false)
	if err != nil {
		webutils.WriteErrorCode(w, http.StatusNotFound, err)
		return
	}
	webutils.WriteJson(w, v)
}

func (s *Server) HandlerDumpResource(w http.ResponseWriter, r *http.Request) {
	id, err := webutils.ResourceID(r)
	if err != nil {
		webutils.WriteErrorCode(w, http.StatusBadRequest, err)
		return
	}
	v, err := s.record(id, r.URL.Query().Get("raw") != "")
	if err != nil {
		webutils.WriteErrorCode(w, http.StatusNotFound, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	webutils.WriteResult(w, []byte(utils.SDump(v)))
}

type sceneObject struct {
	Name       string         `json:"name"`
	ResourceID uint64         `json:"resource_id,omitempty"`
	Children   []*sceneObject `json:"children,omitempty"`
}

func (s *Server) sceneTree(sc *scene.Scene, h scene.Handle) *sceneObject {
	g := sc.GameObject(h)
	o := &sceneObject{Name: g.Name, ResourceID: s.source.FindResourceID(h)}
	for _, c := range g.Children {
		o.Children = append(o.Children, s.sceneTree(sc, c))
	}
	return o
}

func (s *Server) HandlerScene(w http.ResponseWriter, r *http.Request) {
	sc := s.source.Scene()
	roots := make([]*sceneObject, 0, len(sc.Roots))
	for _, h := range sc.Roots {
		roots = append(roots, s.sceneTree(sc, h))
	}
	webutils.WriteJson(w, map[string]interface{}{"name": sc.Name, "roots": roots})
}

func (s *Server) HandlerExportGLTF(w http.ResponseWriter, r *http.Request) {
	id, err := webutils.ResourceID(r)
	if err != nil {
		webutils.WriteErrorCode(w, http.StatusBadRequest, err)
		return
	}
	s.gs.EnsureResourceIsLoaded(id)
	doc, err := ExportGLTF(s.gs, id)
	if err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Failed to export %d", id))
		return
	}
	webutils.WriteFileHeaders(w, strconv.FormatUint(id, 10)+".glb")
	if err := gltfutils.ExportBinary(w, doc); err != nil {
		utils.LogError("[web] Failed to write glb %d: %v", id, err)
	}
}

func (s *Server) HandlerPreview(w http.ResponseWriter, r *http.Request) {
	id, err := webutils.ResourceID(r)
	if err != nil {
		webutils.WriteErrorCode(w, http.StatusBadRequest, err)
		return
	}
	s.gs.EnsureResourceIsLoaded(id)
	t, ok := s.gs.Texture(id)
	if !ok {
		webutils.WriteErrorCode(w, http.StatusNotFound, errors.Errorf("Texture %d is not stored", id))
		return
	}
	format := strings.ToLower(mux.Vars(r)["format"])
	w.Header().Set("Content-Type", "image/"+format)
	if err := txr.WritePreview(w, t, format); err != nil {
		webutils.WriteError(w, err)
	}
}

func (s *Server) HandlerExtract(w http.ResponseWriter, r *http.Request) {
	if !s.extracting.TryLock() {
		webutils.WriteErrorCode(w, http.StatusConflict, errors.New("Extraction is already running"))
		return
	}
	defer s.extracting.Unlock()

	forceMask := interop.FORCE_NOTHING
	if v := r.FormValue("force"); v != "" {
		mask, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			webutils.WriteErrorCode(w, http.StatusBadRequest, errors.Wrapf(err, "Bad force mask %q", v))
			return
		}
		forceMask = interop.ForceMask(mask)
	}
	verify := r.FormValue("verify") != ""

	status.Info("Extracting scene %q", s.source.Scene().Name)
	ok := s.source.ExtractScene(forceMask, verify, status.TextureProgress)
	if !ok {
		status.Error("Extraction of %q finished with errors", s.source.Scene().Name)
	}
	webutils.WriteJson(w, map[string]interface{}{
		"ok":        ok,
		"resources": len(s.gs.Resources()),
		"pending":   s.source.PendingTextures(),
	})
}

func (s *Server) HandlerSave(w http.ResponseWriter, r *http.Request) {
	if !s.source.SaveToDisk() {
		webutils.WriteError(w, errors.New("Failed to save store"))
		return
	}
	status.Info("Saved store to %q", s.source.Settings().CachePath)
	webutils.WriteJson(w, map[string]bool{"ok": true})
}

func (s *Server) HandlerStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.LogWarn("[web] Websocket upgrade failed: %v", err)
		return
	}
	status.NewClient(conn)
}
