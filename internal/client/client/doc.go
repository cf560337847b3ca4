// Package client contains the CLI's transports and local state bootstrap.
//
// RESTClient implements API against the account and stream-key HTTP
// endpoints and maps error bodies to *APIError. GRPCClient implements Ingest
// against the StreamKeys gRPC service and attaches the ingest secret to
// every call. InitDatabase opens the local SQLite file that keeps the saved
// session.
//
// Transport failures are reported as ErrUnavailable; 401 answers match
// ErrUnauthorized with errors.Is.
package client
