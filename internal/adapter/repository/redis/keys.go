// Package redis holds the Redis-backed report cache and idempotency store.
package redis

import "strings"

// DefaultNamespace prefixes every key written by this package.
const DefaultNamespace = "bankledger"

// keyspace builds namespaced keys of the form "<ns>:<kind>:<key>".
type keyspace string

func newKeyspace(namespace, kind string) keyspace {
	namespace = strings.TrimSuffix(namespace, ":")
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return keyspace(namespace + ":" + kind + ":")
}

func (k keyspace) key(name string) string {
	return string(k) + name
}
