// Package snykapi provides a typed client for the parts of the Snyk
// management API this tool needs: verifying the token, listing the
// organizations of a group, and deleting a single organization.
//
// Errors returned by the client carry a Kind so callers can decide what is
// retryable without inspecting status codes or response bodies.
package snykapi
