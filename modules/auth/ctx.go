package auth

import "context"

type userMetaKey struct{}

type UserMetadata struct {
	ID    int64
	Email string
	Roles []string
}

func withUserMeta(ctx context.Context, meta *UserMetadata) context.Context {
	return context.WithValue(ctx, userMetaKey{}, meta)
}

// GetUserMeta returns the user set by WithAuth from the request context.
func GetUserMeta(ctx context.Context) *UserMetadata {
	val := ctx.Value(userMetaKey{})
	if val == nil {
		return nil
	}
	um, _ := val.(*UserMetadata)
	return um
}
