// Airbyte is the go-sdk/cdk to help build connectors quickly in go
// This package abstracts away much of the "protocol" away from the user and lets them focus on biz logic
//
// Ready-made source kinds live in sub packages:
//
//	httpstream  - sources over HTTP apis with pluggable request dispatcher
//	declarative - manifest-only sources described by yaml
//	filebased   - sources reading csv/jsonl files
package airbyte
