// Package auth manages the persisted Amazon session.
//
// The browser-driven login flow itself is an external collaborator:
// this package only consumes its output, a JSON cookie export, and
// turns it into an authenticated *http.Client with a cookie jar. It
// also offers validation against the notebook endpoint and session
// invalidation, which the orchestrator triggers after repeated
// authentication failures.
package auth
