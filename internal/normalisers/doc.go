// Package normalisers provides implementations of the Extractor interface
// for the supported document formats. Each normaliser knows how to turn one
// file type into plain-text source documents.
//
// Normalisers are handed to the loader at startup.
package normalisers
