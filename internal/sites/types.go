package sites

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Site groups a page tree under a domain.
type Site struct {
	bun.BaseModel `bun:"table:sites,alias:s"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Domain    string    `bun:"domain,notnull" json:"domain"`
	Name      string    `bun:"name,notnull" json:"name"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}
