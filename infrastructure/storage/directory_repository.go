package storage

import (
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"group-chat/domain/chat"
	"group-chat/errors"
)

// DirectoryRepository is the local stand-in for the membership directory,
// the identity provider and the endpoint registry.
type DirectoryRepository struct {
	db              *badger.DB
	log             *slog.Logger
	conflictRetries int
}

func NewDirectoryRepository(db *badger.DB, log *slog.Logger) *DirectoryRepository {
	return &DirectoryRepository{db: db, log: log, conflictRetries: defaultConflictRetries}
}

func (d *DirectoryRepository) GetGroup(_ context.Context, id chat.GroupID) (chat.Group, error) {
	var group chat.Group
	err := d.db.View(func(txn *badger.Txn) error {
		var err error
		group, err = readGroup(txn, id)
		return err
	})
	if err != nil {
		return chat.Group{}, unavailable(err)
	}
	return group, nil
}

// Members implements the membership lookup of the chat core.
func (d *DirectoryRepository) Members(ctx context.Context, id chat.GroupID) ([]chat.UserID, error) {
	group, err := d.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	return group.Members, nil
}

// UpsertGroup creates the group or replaces its name and members,
// the last message is preserved.
func (d *DirectoryRepository) UpsertGroup(_ context.Context, id chat.GroupID, name string, members []chat.UserID) error {
	err := updateWithRetry(d.db, d.conflictRetries, func(txn *badger.Txn) error {
		group, err := readGroup(txn, id)
		if err != nil && !goerrors.Is(err, errors.ErrGroupNotFound) {
			return err
		}
		group.ID = id
		group.Name = name
		group.Members = lo.Uniq(members)
		return txn.Set(groupKey(id), encodeGroup(group))
	})
	if err != nil {
		return unavailable(err)
	}
	d.log.Info("Group upserted", "group", id, "members", len(members))
	return nil
}

func (d *DirectoryRepository) AddMember(_ context.Context, id chat.GroupID, user chat.UserID) error {
	return d.updateGroup(id, func(g *chat.Group) {
		g.Members = lo.Uniq(append(g.Members, user))
	})
}

// RemoveMember drops user from the group. Receipts already recorded stay.
func (d *DirectoryRepository) RemoveMember(_ context.Context, id chat.GroupID, user chat.UserID) error {
	return d.updateGroup(id, func(g *chat.Group) {
		g.Members = slices.DeleteFunc(g.Members, func(m chat.UserID) bool { return m == user })
	})
}

func (d *DirectoryRepository) updateGroup(id chat.GroupID, mutate func(g *chat.Group)) error {
	err := updateWithRetry(d.db, d.conflictRetries, func(txn *badger.Txn) error {
		group, err := readGroup(txn, id)
		if err != nil {
			return err
		}
		mutate(&group)
		return txn.Set(groupKey(id), encodeGroup(group))
	})
	return unavailable(err)
}

func (d *DirectoryRepository) UpsertProfile(_ context.Context, user chat.UserID, displayName string) error {
	err := d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(profileKey(user), encodeProfile(profile{UserID: user, DisplayName: displayName}))
	})
	return unavailable(err)
}

// DisplayName returns an empty name for identities without a profile.
func (d *DirectoryRepository) DisplayName(_ context.Context, user chat.UserID) (string, error) {
	var name string
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(profileKey(user))
		if goerrors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			p, err := decodeProfile(v)
			name = p.DisplayName
			return err
		})
	})
	if err != nil {
		return "", unavailable(err)
	}
	return name, nil
}

// RegisterEndpoint is idempotent on (user, platform, token).
func (d *DirectoryRepository) RegisterEndpoint(ctx context.Context, user chat.UserID, platform chat.Platform, token string) (chat.Endpoint, error) {
	var endpoint chat.Endpoint
	err := updateWithRetry(d.db, d.conflictRetries, func(txn *badger.Txn) error {
		existing, err := readEndpoints(txn, user)
		if err != nil {
			return err
		}
		for _, e := range existing {
			if e.Platform == platform && e.Token == token {
				endpoint = e
				return nil
			}
		}
		endpoint = chat.Endpoint{
			ID:        uuid.NewString(),
			UserID:    user,
			Platform:  platform,
			Token:     token,
			CreatedAt: time.Now().UTC(),
		}
		return txn.Set(endpointKey(user, endpoint.ID), encodeEndpoint(endpoint))
	})
	if err != nil {
		return chat.Endpoint{}, unavailable(err)
	}
	d.log.Debug("Endpoint registered", "user", user, "platform", platform, "endpoint", endpoint.ID)
	return endpoint, nil
}

func (d *DirectoryRepository) UnregisterEndpoint(_ context.Context, user chat.UserID, endpointID string) error {
	err := d.db.Update(func(txn *badger.Txn) error {
		key := endpointKey(user, endpointID)
		if _, err := txn.Get(key); err != nil {
			if goerrors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", errors.ErrEndpointNotFound, endpointID)
			}
			return err
		}
		return txn.Delete(key)
	})
	return unavailable(err)
}

func (d *DirectoryRepository) Endpoints(_ context.Context, user chat.UserID) ([]chat.Endpoint, error) {
	var endpoints []chat.Endpoint
	err := d.db.View(func(txn *badger.Txn) error {
		var err error
		endpoints, err = readEndpoints(txn, user)
		return err
	})
	if err != nil {
		return nil, unavailable(err)
	}
	return endpoints, nil
}

func readGroup(txn *badger.Txn, id chat.GroupID) (chat.Group, error) {
	item, err := txn.Get(groupKey(id))
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return chat.Group{ID: id}, fmt.Errorf("%w: %s", errors.ErrGroupNotFound, id)
	}
	if err != nil {
		return chat.Group{}, err
	}
	var group chat.Group
	err = item.Value(func(v []byte) error {
		group, err = decodeGroup(v)
		return err
	})
	return group, err
}

func readEndpoints(txn *badger.Txn, user chat.UserID) ([]chat.Endpoint, error) {
	var endpoints []chat.Endpoint
	prefix := endpointsOf(user)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		err := it.Item().Value(func(v []byte) error {
			e, err := decodeEndpoint(v)
			if err != nil {
				return err
			}
			endpoints = append(endpoints, e)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return endpoints, nil
}
