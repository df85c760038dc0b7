// Package services holds the application-level logic between the HTTP
// transport and the repositories. This file centralizes the sentinel
// errors service methods return so handlers can map them to HTTP
// results consistently.
package services

import "errors"

var (
	// ErrEmptyName is returned when a chat request carries no name; the
	// user fingerprint cannot be derived without one.
	ErrEmptyName = errors.New("name is empty")

	// ErrEmptyMessage is returned when a chat request carries no message.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrSessionNotFound indicates the referenced session does not exist,
	// is not active, or belongs to another user.
	ErrSessionNotFound = errors.New("session not found")
)

// ApologyMessage is the fixed user-visible reply substituted when the
// reasoning engine fails. Internal error detail never reaches the user.
const ApologyMessage = "Sorry, we're currently facing some downtime. Your order might be delayed. We'll notify you once it's placed."
