// Package notifier delivers text notifications to the single configured
// recipient through a transport.Adapter.
//
// Delivery is synchronous: the caller learns about a failure through the
// returned *DeliveryError and decides what to do with it. The service never
// retries on its own; a lost message is re-detected by the next poll.
//
// Every attempt is throttled with a token bucket, published on the event bus
// and, when storage is configured, appended to the delivery journal.
package notifier
