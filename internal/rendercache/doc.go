// Package rendercache persists rendered block assets across builds.
//
// Rendering text and animation blocks dominates build time, so identical
// payloads are served from a content-addressed store instead of re-running
// the toolchains. The store is a directory of object files indexed by a
// SQLite database; a file lock serializes mutations between concurrent
// build processes. Cache keys cover the renderer contract as well as the
// payload, so a preamble or quality change invalidates cleanly.
package rendercache
