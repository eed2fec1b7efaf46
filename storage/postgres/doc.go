// Package postgres implements the record repository on PostgreSQL with
// the pgvector extension. It is the production backend: similarity
// search runs server-side over an ivfflat cosine index, and bulk writes
// use the binary COPY protocol on a connection acquired per call.
package postgres
