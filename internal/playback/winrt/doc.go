// Package winrt implements playback.Backend on top of the Windows Runtime
// Windows.Media.Audio.AudioPlaybackConnection and
// Windows.Devices.Enumeration.DeviceWatcher classes.
//
// Objects are driven through raw vtable calls on activation factories
// obtained with go-ole. Event handlers are native delegate objects whose
// memory lives outside the Go heap; the Go side of each delegate is kept in a
// registry keyed by the native pointer.
package winrt
