// Package landlordctx carries the authenticated landlord through request contexts.
package landlordctx

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type landlordKey struct{}

func WithLandlordID(ctx context.Context, id snowflake.ID) context.Context {
	return context.WithValue(ctx, landlordKey{}, id)
}

func LandlordIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	id, ok := ctx.Value(landlordKey{}).(snowflake.ID)
	return id, ok
}
