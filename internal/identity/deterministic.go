// Package identity derives stable ids for seeded sites, pages, titles and
// plugins, so re-seeding a manifest updates rows instead of duplicating them.
package identity

import (
	"strconv"
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

const namespace = "cmsnav"

// UUID hashes key with go-hashid. Blank keys map to uuid.Nil.
func UUID(key string) uuid.UUID {
	key = strings.TrimSpace(key)
	if key == "" {
		return uuid.Nil
	}
	id, err := hashid.NewUUID(key, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || id == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
	}
	return id
}

// scoped joins kind and parts into a namespaced key so ids of different
// entity kinds never collide.
func scoped(kind string, parts ...string) uuid.UUID {
	return UUID(strings.Join(append([]string{namespace, kind}, parts...), ":"))
}

func fold(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// SiteUUID derives the id of a site from its domain.
func SiteUUID(domain string) uuid.UUID {
	return scoped("site", fold(domain))
}

// PageUUID derives a page id from its site and its reverse id or path.
func PageUUID(siteID uuid.UUID, key string) uuid.UUID {
	return scoped("page", siteID.String(), strings.Trim(strings.TrimSpace(key), "/"))
}

func TitleUUID(pageID uuid.UUID, language string) uuid.UUID {
	return scoped("title", pageID.String(), fold(language))
}

func PluginUUID(pageID uuid.UUID, language, placeholder string, position int) uuid.UUID {
	return scoped("plugin", pageID.String(), fold(language), fold(placeholder), strconv.Itoa(position))
}
