package services

import (
	"context"
	goerrors "errors"
	"fmt"

	"github.com/samber/lo"

	"group-chat/contract"
	"group-chat/domain/chat"
	"group-chat/errors"
)

// requireMember resolves the membership of the group on every call.
// An unknown group is reported as NotMember so callers cannot probe for groups.
func requireMember(ctx context.Context, directory contract.MembershipDirectory, group chat.GroupID, user chat.UserID) error {
	members, err := directory.Members(ctx, group)
	if err != nil {
		if goerrors.Is(err, errors.ErrGroupNotFound) {
			return fmt.Errorf("%w: %s in %s", errors.ErrNotMember, user, group)
		}
		return err
	}
	if !lo.Contains(members, user) {
		return fmt.Errorf("%w: %s in %s", errors.ErrNotMember, user, group)
	}
	return nil
}
