// Package minio provides a block device on MinIO and other S3-compatible
// object stores, one object per block.
package minio
