// Package s3 provides AWS-backed block devices: S3 with one object per
// block, and DynamoDB with one item per block. Both support at-rest block
// compression via a blockdev.Codec.
package s3
