// Package download orchestrates downloading every stem of one mix.
//
// The mixer widget exposes a single shared download control whose effect
// depends on a global isolation state, so tracks are processed strictly
// one at a time: isolate, trigger, await the file, rename, de-isolate.
// Completion is detected by watching the download directory, the only
// signal the browser gives for finished transfers.
package download
