// Package services wires the driven ports into the operations front ends
// call.
//
// IndexManager owns indexing: Loader, then Splitter, then EmbeddingService,
// then IndexBuilder. Questions flow through Retriever into ChatService.
package services
