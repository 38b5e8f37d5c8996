// Package session abstracts the browser automation engine behind narrow
// capability interfaces.
//
// Session is one live browser page; Context is one rendering context within
// it (the top-level document or a nested frame); Element is one DOM node.
// Everything above this package — catalog scraping, mixer discovery, the
// download orchestrator — is written purely against these interfaces, so
// the engine can be replaced without touching any of it.
//
// The production implementation rides go-rod (Launch). Tests use the
// scriptable fake in the sessiontest subpackage.
package session
