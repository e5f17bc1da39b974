package note

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type Note struct {
	bun.BaseModel `bun:"table:notes,alias:n"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Title     string    `bun:"title,notnull" json:"title"`
	Content   string    `bun:"content,notnull" json:"content"`
	StudentID int64     `bun:"student_id,notnull" json:"studentId"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

// Input is the client-editable part of a note
type Input struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

var (
	_ bun.BeforeAppendModelHook = (*Note)(nil)
	_ bun.BeforeCreateTableHook = (*Note)(nil)
	_ bun.AfterCreateTableHook  = (*Note)(nil)
)

func (n *Note) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		n.UpdatedAt = n.CreatedAt
	case *bun.UpdateQuery:
		n.UpdatedAt = now
	}
	return nil
}

// BeforeCreateTable ties notes to their owner; removing a student removes
// the notes.
func (*Note) BeforeCreateTable(ctx context.Context, query *bun.CreateTableQuery) error {
	query.ForeignKey(`("student_id") REFERENCES "students" ("id") ON DELETE CASCADE`)
	return nil
}

func (*Note) AfterCreateTable(ctx context.Context, query *bun.CreateTableQuery) error {
	_, err := query.DB().NewCreateIndex().
		Model((*Note)(nil)).
		Index("idx_notes_student_created").
		Column("student_id", "created_at").
		IfNotExists().
		Exec(ctx)
	return err
}
