// Package alerts owns the on-screen boss alerts and their timed lifecycle.
//
// An alert is raised once, stays fully opaque for most of its display
// duration, fades out over the final second and is then pruned. The most
// recently raised alert can be replayed on demand, which restarts its timer
// and brings it back if it had already expired.
//
// # Driving
//
// Center is not safe for concurrent use. A single frame loop is expected to
// call Raise/ReplayMostRecent (directly or through the scanner), then Prune,
// then hand Frames to a renderer. Rendering only reads Frames.
package alerts
