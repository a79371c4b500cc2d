// Package config loads the editor configuration.
//
// Settings come from three layers, each overriding the previous one:
//
//  1. Built-in defaults (Default)
//  2. The TOML file, by default $XDG_CONFIG_HOME/canvasforge/canvasforge.toml
//  3. CANVASFORGE_* environment variables
//
// Example file:
//
//	[history]
//	limit = 100
//
//	[canvas]
//	background = "#fafafa"
//
//	[shapes.circle]
//	fill = "lightblue"
//
//	[keys]
//	"history.redo" = ["ctrl+y", "ctrl+shift+z"]
//
// The loader and watcher subpackages read the raw layers and report file
// changes for live reload.
package config
