// Package utils holds request validation limits and content digests
// shared by the API and the fetch pipeline.
package utils
