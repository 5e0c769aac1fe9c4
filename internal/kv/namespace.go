package kv

import (
	"context"
	"strings"
)

// AnonymousUser namespaces data written while nobody is signed in.
const AnonymousUser = "anonymous"

// Namespaced prefixes every key with "{userID}_".
type Namespaced struct {
	store  Store
	userID string
}

// Namespace scopes store to userID. An empty id maps to AnonymousUser.
func Namespace(store Store, userID string) *Namespaced {
	if strings.TrimSpace(userID) == "" {
		userID = AnonymousUser
	}
	return &Namespaced{store: store, userID: userID}
}

// UserID returns the namespace owner.
func (n *Namespaced) UserID() string { return n.userID }

// Key returns the physical key for a logical one.
func (n *Namespaced) Key(key string) string {
	return n.userID + "_" + key
}

func (n *Namespaced) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return n.store.Get(ctx, n.Key(key))
}

func (n *Namespaced) Set(ctx context.Context, key string, value []byte) error {
	return n.store.Set(ctx, n.Key(key), value)
}

func (n *Namespaced) Remove(ctx context.Context, key string) error {
	return n.store.Remove(ctx, n.Key(key))
}
