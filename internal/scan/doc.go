// Package scan adapts an OS device watcher into a scoped, single-owner scan.
//
// While a Scan runs, only the watcher callback writes the device list. Stop
// removes the listener and hands the finished, discovery-ordered list to the
// caller; nothing touches it afterwards.
package scan
