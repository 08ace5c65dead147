// Package playback defines the device and connection model for audio playback
// endpoints exposed by the operating system.
//
// The package is backend-neutral:
//   - Device records discovered by a Watcher
//   - Connection handles with observed, OS-driven state
//   - Human-readable labels for connection states and open results
//
// The production implementation lives in the winrt subpackage.
package playback
