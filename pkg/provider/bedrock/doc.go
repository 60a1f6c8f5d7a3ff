// Package bedrock calls Bedrock foundation models through the Converse
// API. It owns the only retry loop in the gateway: throttled or
// temporarily unavailable invocations are retried up to three times with
// doubling delays. All other AWS calls rely on the SDK's default retrier.
package bedrock
