// Package export writes load payloads ahead of time.
//
// An Exporter runs the loaders of a set of paths, encodes each result
// exactly as the server's ".get" endpoint would, and hands it to a Sink.
// DirSink writes files; S3Sink writes objects to a bucket. Hosting the
// output next to the pages lets clients fetch payloads without a running
// server.
package export
