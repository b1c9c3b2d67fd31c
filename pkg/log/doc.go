// Package log provides structured logging of sync events.
//
// Every layer of the client (connection, subscription controllers, scope
// changes, row delivery) emits Event values through a Logger. Applications
// choose the sink: SlogAdapter for console development output,
// ZerologAdapter for JSON pipelines, MultiLogger to fan out, or NoopLogger
// to disable logging entirely.
//
// Events carry integer-keyed CBOR tags so recorded streams can be stored
// compactly and replayed by tooling.
package log
