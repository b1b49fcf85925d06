package storage

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// DefaultSignedURLTTL is the expiry used for signed object URLs.
const DefaultSignedURLTTL = 15 * time.Minute

// objectPathMarker is the storage API path segment that identifies one
// of our own object URLs regardless of project host.
const objectPathMarker = "/storage/v1/object/"

// reservedSegments are path prefixes that can never be bucket names.
var reservedSegments = map[string]bool{
	"public":        true,
	"object":        true,
	"sign":          true,
	"authenticated": true,
	"storage":       true,
	"render":        true,
}

// Resolver normalizes heterogeneous stored path forms into bucket/object
// candidates and resolves the first one that yields a fetchable URL.
//
// Stored values accumulated over the life of the app come in several
// shapes: bare object keys, keys prefixed with public/ or the storage
// API path, keys carrying a bucket name, and full absolute URLs from
// before paths were stored relative. The resolver accepts them all, and
// its alternate-bucket candidates let assets migrate between buckets
// without rewriting stored values.
type Resolver struct {
	client        Client
	defaultBucket string
	ttl           time.Duration
}

// NewResolver creates a resolver over the given client and default bucket.
func NewResolver(client Client, defaultBucket string, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	return &Resolver{client: client, defaultBucket: defaultBucket, ttl: ttl}
}

type candidate struct {
	bucket string
	object string
}

// Resolve turns a stored value into a URL a client can fetch, preferring
// a time-limited signed URL and falling back to the public URL when the
// object is reachable without signing. Data URIs and absolute URLs that
// are not ours pass through unchanged. Returns "" when no candidate
// yields a URL; callers must treat that as "image unavailable", not as
// an error.
func (r *Resolver) Resolve(ctx context.Context, stored string) string {
	cands, passthrough := r.candidates(stored)
	if passthrough {
		return stored
	}

	for _, c := range cands {
		signed, err := r.client.CreateSignedURL(ctx, c.bucket, c.object, r.ttl)
		if err == nil && signed != "" {
			return signed
		}
		if r.client.ObjectExists(ctx, c.bucket, c.object) {
			if u := r.client.PublicURL(c.bucket, c.object); u != "" {
				return u
			}
		}
	}
	return ""
}

// Thumbnail resolves a stored value to a transformed public URL sized
// for list views. It skips the signing round-trip on purpose: list
// thumbnails are not sensitive here and the public render endpoint is
// one request cheaper.
func (r *Resolver) Thumbnail(ctx context.Context, stored string, width, quality int) string {
	cands, passthrough := r.candidates(stored)
	if passthrough {
		return stored
	}

	for _, c := range cands {
		if r.client.ObjectExists(ctx, c.bucket, c.object) {
			return r.client.TransformedPublicURL(c.bucket, c.object, width, quality)
		}
	}
	return ""
}

// candidates normalizes a stored value into an ordered candidate list.
// passthrough is true when the value is already an external reference
// (data URI or an absolute URL that is not a storage object URL) and
// must be returned unchanged.
func (r *Resolver) candidates(stored string) (cands []candidate, passthrough bool) {
	stored = strings.TrimSpace(stored)
	if stored == "" {
		return nil, false
	}
	if strings.HasPrefix(stored, "data:") {
		return nil, true
	}

	key := stored
	var explicit *candidate

	if strings.HasPrefix(stored, "http://") || strings.HasPrefix(stored, "https://") {
		u, err := url.Parse(stored)
		if err != nil {
			return nil, true
		}
		bucket, object, ok := splitObjectPath(u.Path)
		if !ok {
			return nil, true
		}
		// A decomposed URL carries the highest-priority candidate, but
		// the remaining path still goes through the normal stripping so
		// bucket migrations keep working.
		explicit = &candidate{bucket: bucket, object: object}
		key = bucket + "/" + object
	}

	key = strings.TrimPrefix(key, "/")
	key = strings.TrimPrefix(key, "public/")
	key = strings.TrimPrefix(key, "storage/v1/object/")
	key = strings.TrimPrefix(key, "public/")
	key = strings.TrimPrefix(key, r.defaultBucket+"/")
	if key == "" {
		return nil, false
	}

	if explicit != nil {
		cands = append(cands, *explicit)
	}
	cands = append(cands, candidate{bucket: r.defaultBucket, object: key})

	if i := strings.Index(key, "/"); i > 0 && i < len(key)-1 {
		seg, rest := key[:i], key[i+1:]
		if !reservedSegments[seg] && seg != r.defaultBucket {
			cands = append(cands, candidate{bucket: seg, object: rest})
		}
	}

	return dedupe(cands), false
}

// splitObjectPath decomposes a storage API URL path into bucket and
// object key. Accepts the public, sign and authenticated variants.
func splitObjectPath(path string) (bucket, object string, ok bool) {
	i := strings.Index(path, objectPathMarker)
	if i < 0 {
		return "", "", false
	}
	rest := path[i+len(objectPathMarker):]

	if j := strings.Index(rest, "/"); j > 0 {
		switch rest[:j] {
		case "public", "sign", "authenticated":
			rest = rest[j+1:]
		}
	}

	j := strings.Index(rest, "/")
	if j <= 0 || j == len(rest)-1 {
		return "", "", false
	}
	return rest[:j], rest[j+1:], true
}

func dedupe(cands []candidate) []candidate {
	seen := make(map[candidate]bool, len(cands))
	out := cands[:0]
	for _, c := range cands {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
