// Package cli implements the libctl command tree.
package cli
