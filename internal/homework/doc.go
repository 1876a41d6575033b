// Package homework holds the review-status domain: the closed set of status
// codes, validation of the remote response shape, and the per-item differ that
// decides which status changes are worth a notification.
//
// Records are kept as gjson.Result values so that the validator can report the
// observed JSON type of a malformed field without a second decode.
package homework
