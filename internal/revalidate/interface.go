package revalidate

import "context"

//go:generate mockgen -destination=mocks/mock_revalidator.go -package=mocks github.com/harborview/sitekit/internal/revalidate Revalidator

// Revalidator invalidates cached rendered output so it is regenerated on
// next access. Implemented by the Redis cache.
type Revalidator interface {
	RevalidatePath(ctx context.Context, path string) error
	RevalidateTag(ctx context.Context, tag string) error
}
