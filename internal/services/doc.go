// Package services builds and holds the long-lived components shared by
// the sitind daemon and the sitin CLI: the catalog store, the retrieval
// stack and the answering pipeline.
//
// Use Build to construct only what a command needs, then the Registry
// accessors to retrieve individual services.
package services
