// Package state provides the persistence layer: session transcript
// stores (memory, file, redis), user preference stores with an optional
// read-through cache, and the locked canon memory store.
package state
