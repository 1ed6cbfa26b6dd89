// Package domain holds the values that move through docchat.
//
// A file becomes one or more SourceDocuments (one per PDF page). Each is cut
// into Chunks, and a Chunk with its vector is an IndexEntry. A ChatTurn is
// one question and answer in a session. Settings, index status and check
// results live here too.
//
// domain imports only the standard library.
package domain
