package rediskey

import "fmt"

// Document store keys (global convention across backends)
const (
	DocumentPrefix = "doc"
	IndexPrefix    = "idx"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildDocumentKey returns "{prefix}:doc:{path}"
func BuildDocumentKey(prefix, path string) string {
	return NamespaceKey(prefix, NamespaceKey(DocumentPrefix, path))
}

// BuildIndexKey returns "{prefix}:idx:{collection}", the set of keys stored
// under collection.
func BuildIndexKey(prefix, collection string) string {
	return NamespaceKey(prefix, NamespaceKey(IndexPrefix, collection))
}
