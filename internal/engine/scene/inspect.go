package scene

import (
	"github.com/tidwall/gjson"

	"github.com/dshills/canvasforge/internal/engine/history"
)

// Query evaluates a gjson path against a serialized scene,
// for example "objects.#.type" or "objects.0.left".
func Query(snap history.Snapshot, path string) gjson.Result {
	return gjson.GetBytes(snap.Bytes(), path)
}

// Count returns the number of objects in a serialized scene.
func Count(snap history.Snapshot) int {
	return int(Query(snap, "objects.#").Int())
}

// ObjectIDs returns the object identities of a serialized scene in
// stacking order. Objects serialized without identity are skipped.
func ObjectIDs(snap history.Snapshot) []string {
	var ids []string
	Query(snap, "objects").ForEach(func(_, obj gjson.Result) bool {
		if id := obj.Get("id"); id.Exists() {
			ids = append(ids, id.String())
		}
		return true
	})
	return ids
}

// Types returns the object types of a serialized scene in stacking order.
func Types(snap history.Snapshot) []string {
	var types []string
	for _, t := range Query(snap, "objects.#.type").Array() {
		types = append(types, t.String())
	}
	return types
}
