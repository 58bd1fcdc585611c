// Package companion is a reference companion for the shutter device.
//
// A Simulator stands in for the phone application: it acknowledges every
// intent and, on CaptureToggle, takes a picture once the requested timer
// value (plus a configurable slack) has elapsed. A second toggle before then
// cancels the shot. StatusCheck marks the device as on its setup screen.
//
// Service puts the simulator behind a transport.Server and, optionally,
// advertises it over mDNS. Package api exposes a small HTTP control surface
// for driving the simulator by hand.
package companion
