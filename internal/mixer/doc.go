// Package mixer locates and drives the service's in-page mixer widget.
//
// # Locating
//
// The widget may be mounted inline, appear only after a customize
// affordance is clicked, mount lazily on scroll, or render inside a nested
// frame. Locator probes all of these in order, retrying up to a timeout,
// and captures document snapshots on failure.
//
// # Driving
//
// Handle is a narrow capability over the located widget: track captions,
// per-track solo controls, the single shared download control, overlay
// dismissal, and the click-track mute. The widget holds one global
// "isolated track" state, so a handle must only ever be driven from one
// goroutine, strictly sequentially.
package mixer
