// Package render turns the finalized block sequence into staged assets.
//
// Planning assigns every block its archive asset reference up front, so
// reference collisions are resolved before any subprocess runs. Dispatch
// then fans the work out to a bounded worker pool: text and animation
// blocks go through their renderer clients (with a cache consult when
// caching is enabled), media blocks are verified copies. A renderer failure
// marks only its own block; the rest of the document still builds.
package render
