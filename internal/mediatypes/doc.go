// Package mediatypes holds the static policy tables of the ingest pipeline:
// the content-type classifier and the canonical dimension table.
//
// Both tables are built once and exposed only through read-only methods, so
// they can be shared by concurrent uploads without locking.
//
// # Classification
//
// Classification is driven by the declared content type only; file bytes are
// never sniffed:
//
//	category, err := mediatypes.Default().ClassifyUpload(contentType, size)
//	switch category {
//	case mediatypes.CategoryImage:
//	    // WebP pipeline
//	case mediatypes.CategoryVideo:
//	    // MP4 pipeline
//	}
//
// A zero-length upload fails with failure.KindEmptyUpload; an unknown or
// missing content type fails with failure.KindUnsupportedType.
//
// # Dimensions
//
//	dims := mediatypes.DefaultDimensionPolicy().For(mediatypes.CategoryImage) // 640x426
package mediatypes
