// Package connection opens a playback connection to a selected device and
// reports its OS-driven state transitions.
//
// State changes arrive on OS threads; they are queued on a bounded ring
// channel and printed by a single named goroutine. The OS callback never
// blocks on the console.
package connection
