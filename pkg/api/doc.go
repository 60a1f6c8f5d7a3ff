// Package api defines the wire types for the AgentCore showcase API:
// the response envelope, the error taxonomy, request/response payloads
// for every endpoint, and the validation rules they share.
//
// All JSON endpoints respond with an Envelope. Domain-level failures
// (an AWS call that was rejected, a missing deployment) are reported as
// {"success":false,"error":...} with HTTP 200; transport-level failures
// (malformed JSON, missing auth) use the matching HTTP status code.
package api
