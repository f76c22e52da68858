/*
 * Copyright 2025 QuickBars.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package payload

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const signedURLTTL = 60 * time.Second

// MediaRef is a parsed media reference. Parsing happens once at the
// boundary; afterwards every consumer switches exhaustively on the
// variant instead of sniffing shapes.
type MediaRef interface {
	isMediaRef()
}

// MediaURL is an absolute URL the companion app can fetch directly.
type MediaURL string

// MediaPath is a path relative to the hub's public media root.
type MediaPath string

// MediaLibraryID is an opaque media-library identifier resolved through
// the hub's media collaborator.
type MediaLibraryID string

func (MediaURL) isMediaRef()       {}
func (MediaPath) isMediaRef()      {}
func (MediaLibraryID) isMediaRef() {}

// ParseMediaRef classifies a raw media reference. Accepted shapes: an
// absolute http(s) URL string, a "local/..." or "/local/..." path
// string, or a mapping with one of the keys url, path, media_id.
// Anything else yields ok=false and the field is dropped.
func ParseMediaRef(v any) (MediaRef, bool) {
	switch spec := v.(type) {
	case string:
		s := strings.TrimSpace(spec)

		switch {
		case s == "":
			return nil, false
		case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
			return MediaURL(s), true
		case strings.HasPrefix(s, "/local/"), strings.HasPrefix(s, "local/"):
			return MediaPath(s), true
		default:
			return nil, false
		}
	case map[string]any:
		if u, ok := spec["url"].(string); ok && u != "" {
			return MediaURL(u), true
		}

		if p, ok := spec["path"].(string); ok && p != "" {
			return MediaPath(p), true
		}

		if id, ok := spec["media_id"].(string); ok && id != "" {
			return MediaLibraryID(id), true
		}

		return nil, false
	default:
		return nil, false
	}
}

// MediaResolver turns an opaque media-library id into a URL, which may
// still be relative to the hub.
type MediaResolver interface {
	Resolve(ctx context.Context, mediaID string) (string, error)
}

// PathSigner signs a server-relative path with a short-lived access
// token so the companion app can fetch it without hub credentials.
type PathSigner interface {
	Sign(ctx context.Context, path string, ttl time.Duration) (string, error)
}

// ResolverDeps are the collaborators media resolution needs. BaseURL is
// the hub's externally reachable base URL, without a trailing slash.
type ResolverDeps struct {
	BaseURL  string
	Resolver MediaResolver
	Signer   PathSigner
}

// ResolveMediaURL turns a parsed MediaRef into a single absolute,
// fetchable URL.
func ResolveMediaURL(ctx context.Context, ref MediaRef, deps ResolverDeps) (string, error) {
	switch r := ref.(type) {
	case MediaURL:
		return string(r), nil
	case MediaPath:
		p := strings.TrimPrefix(string(r), "/")
		if !strings.HasPrefix(p, "local/") {
			p = "local/" + p
		}

		return strings.TrimSuffix(deps.BaseURL, "/") + "/" + p, nil
	case MediaLibraryID:
		if deps.Resolver == nil {
			return "", fmt.Errorf("no media resolver configured for id %q", string(r))
		}

		resolved, err := deps.Resolver.Resolve(ctx, string(r))
		if err != nil {
			return "", fmt.Errorf("failed to resolve media id %q: %w", string(r), err)
		}

		if !strings.HasPrefix(resolved, "/") {
			return resolved, nil
		}

		if deps.Signer == nil {
			return "", fmt.Errorf("no path signer configured for relative media url %q", resolved)
		}

		signed, err := deps.Signer.Sign(ctx, resolved, signedURLTTL)
		if err != nil {
			return "", fmt.Errorf("failed to sign media path %q: %w", resolved, err)
		}

		return strings.TrimSuffix(deps.BaseURL, "/") + signed, nil
	default:
		return "", fmt.Errorf("unsupported media reference %T", ref)
	}
}
