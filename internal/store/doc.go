// Package store persists quota samples to an append-only JSONL file.
package store
