// Package storage archives finished notes pages to object storage.
//
// Backends register themselves on import:
//
//   - storage/local: a directory on disk
//   - storage/s3: Amazon S3 or an S3-compatible service
//
// Configuration:
//
//	storage:
//	  enabled: true
//	  provider: s3
//	  prefix: notes/
//	  bucket: meeting-notes
//	  region: ap-northeast-1
package storage
