// Package connectors holds the adapters that reach the documents directory.
// The filesystem connector lists supported files and watches them for changes.
package connectors
