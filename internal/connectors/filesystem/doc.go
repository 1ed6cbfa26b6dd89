// Package filesystem enumerates and watches the local documents directory.
package filesystem
