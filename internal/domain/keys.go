package domain

// KeyPrefix namespaces every key the service writes to a shared key-value store.
// Overridden once at startup from storage.key_prefix.
var KeyPrefix = "kb:"
