package student

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type Student struct {
	bun.BaseModel `bun:"table:students,alias:s"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     string    `bun:"email,unique,notnull" json:"email"`
	Password  string    `bun:"password,notnull" json:"-"` // Never expose password in JSON
	Age       *int      `bun:"age" json:"age"`
	Grade     *string   `bun:"grade" json:"grade"`
	Major     *string   `bun:"major" json:"major"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
}

var _ bun.BeforeAppendModelHook = (*Student)(nil)

func (s *Student) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok && s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	return nil
}
