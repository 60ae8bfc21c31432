// Package messaging publishes events to a broker without tying callers to a
// particular one.
//
// Kafka, NATS, NSQ and Google Pub/Sub are supported, plus a no-op driver for
// deployments that do not ship events anywhere. Callers depend on Publisher
// and pick the backend with NewFromDriver.
package messaging
