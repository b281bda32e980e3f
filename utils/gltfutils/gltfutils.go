package gltfutils

import (
	"io"

	"github.com/qmuntal/gltf"
)

// GLTFCacher shares one document between exporters so a texture or
// material referenced from several places is written once
type GLTFCacher struct {
	Doc   *gltf.Document
	cache map[uint64]interface{}
}

func NewCacher() *GLTFCacher {
	return &GLTFCacher{
		Doc:   gltf.NewDocument(),
		cache: make(map[uint64]interface{}),
	}
}

func (gc *GLTFCacher) AddCache(id uint64, exported interface{}) {
	gc.cache[id] = exported
}

func (gc *GLTFCacher) GetCached(id uint64) interface{} {
	return gc.cache[id]
}

func (gc *GLTFCacher) GetCachedOr(id uint64, export func() interface{}) interface{} {
	if v, ok := gc.cache[id]; ok {
		return v
	}
	v := export()
	gc.cache[id] = v
	return v
}

// ExportBinary writes doc as glb, every node without a parent
// becomes a scene root
func ExportBinary(w io.Writer, doc *gltf.Document) error {
	if len(doc.Scenes) == 0 {
		doc.Scenes = append(doc.Scenes, &gltf.Scene{})
		doc.Scene = gltf.Index(0)
	}
	if len(doc.Scenes[0].Nodes) == 0 {
		isChild := make(map[uint32]bool)
		for _, node := range doc.Nodes {
			for _, c := range node.Children {
				isChild[c] = true
			}
		}
		for iNode := range doc.Nodes {
			if !isChild[uint32(iNode)] {
				doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(iNode))
			}
		}
	}

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}
