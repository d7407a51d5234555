package domain

import (
	"iter"
	"strings"
	"time"

	apperrors "github.com/spec-kit/mvura-console/pkg/util/errorutil"
)

// Comment is a remark in a ticket's thread. Comments are never edited.
type Comment struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentLog is the append-only thread owned by a single ticket.
// It is not safe for concurrent use; the owning Ticket serializes access.
type CommentLog struct {
	entries []Comment
	lastID  int64
}

// Append validates and stores a comment, assigning the next id.
func (l *CommentLog) Append(author, body string, at time.Time) (Comment, error) {
	author = strings.TrimSpace(author)
	body = strings.TrimSpace(body)
	if author == "" {
		return Comment{}, apperrors.NewValidationError("comment author required", nil)
	}
	if body == "" {
		return Comment{}, apperrors.NewValidationError("comment body required", nil)
	}

	l.lastID++
	comment := Comment{
		ID:        l.lastID,
		Author:    author,
		Body:      body,
		CreatedAt: at,
	}
	l.entries = append(l.entries, comment)
	return comment, nil
}

// Len returns the number of comments.
func (l *CommentLog) Len() int {
	return len(l.entries)
}

// All yields comments oldest first. The sequence covers the comments present
// when All was called and can be ranged over any number of times.
func (l *CommentLog) All() iter.Seq[Comment] {
	entries := l.entries[:len(l.entries):len(l.entries)]
	return func(yield func(Comment) bool) {
		for _, c := range entries {
			if !yield(c) {
				return
			}
		}
	}
}

func (l *CommentLog) copyEntries() []Comment {
	out := make([]Comment, len(l.entries))
	copy(out, l.entries)
	return out
}
