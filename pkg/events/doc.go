// Package events defines the key event sources a capture session subscribes
// to: the global OS hook (see the hook subpackage), a raw-mode terminal reader
// for hosts without a display server, and a deterministic script used by
// replays and tests.
package events
