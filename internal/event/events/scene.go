// Package events defines the topics and payloads published on the event bus.
package events

import "github.com/dshills/canvasforge/internal/event"

// Scene topics.
const (
	// TopicObjectAdded is published after an object joins the scene.
	TopicObjectAdded event.Topic = "scene.object.added"

	// TopicObjectModified is published after an object's properties change.
	TopicObjectModified event.Topic = "scene.object.modified"

	// TopicObjectRemoved is published after an object leaves the scene.
	TopicObjectRemoved event.Topic = "scene.object.removed"

	// TopicPathCreated is published after a freehand path is drawn.
	TopicPathCreated event.Topic = "scene.path.created"

	// TopicSceneLoaded is published after a full scene reload completes.
	TopicSceneLoaded event.Topic = "scene.loaded"
)

// ObjectChanged is the payload of the scene.object.* and scene.path.created topics.
type ObjectChanged struct {
	// ObjectID is the stable identity of the object.
	ObjectID string

	// Type is the object's type discriminator ("circle", "i-text", "image", "path").
	Type string
}

// SceneLoaded is the payload of TopicSceneLoaded.
type SceneLoaded struct {
	// Objects is the number of objects after the reload.
	Objects int
}

// Config topics.
const (
	// TopicConfigReloaded is published after the configuration file was re-read.
	TopicConfigReloaded event.Topic = "config.reloaded"
)

// ConfigReloaded is the payload of TopicConfigReloaded.
type ConfigReloaded struct {
	// Path is the configuration file that changed.
	Path string
}
