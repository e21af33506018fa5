package storage

import "io"

// BlobStore is the object-storage side-channel for question and choice
// images (and imported source PDFs). Delete exists so that a failed
// metadata insert can remove the blob it just created: an image row and
// its bytes must be created and removed together.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error
	SignedURL(key string) (string, error) // fs returns "file://..." for dev
}
