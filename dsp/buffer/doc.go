// Package buffer provides a reusable float32 frame buffer and a pool of
// them, so callers that hand frames across goroutines or a host boundary
// can recycle memory instead of allocating per frame.
package buffer
