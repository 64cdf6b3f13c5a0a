// Package adapter contains implementations of interfaces defined in app:
// state stores (memory, SQLite, Redis, DynamoDB) and notifiers (log, SNS).
package adapter

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("timekeeper/adapter")
