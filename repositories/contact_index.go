package repositories

import (
	"context"
	"dm-chat/domain"
	"strings"

	"github.com/blugelabs/bluge"
)

const (
	fieldEmail     = "email"
	fieldFirstName = "first_name"
	fieldLastName  = "last_name"

	DefaultSearchLimit = 50
)

// ContactIndex is a Bluge full-text index over the searchable user fields.
// Values are indexed lower-cased, so wildcard queries behave case-insensitively.
type ContactIndex struct {
	writer *bluge.Writer
	limit  int
}

func NewContactIndex(writer *bluge.Writer, limit int) *ContactIndex {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return &ContactIndex{writer: writer, limit: limit}
}

func contactDocument(u domain.User) *bluge.Document {
	return bluge.NewDocument(u.ID).
		AddField(bluge.NewKeywordField(fieldEmail, strings.ToLower(u.Email))).
		AddField(bluge.NewKeywordField(fieldFirstName, strings.ToLower(u.FirstName))).
		AddField(bluge.NewKeywordField(fieldLastName, strings.ToLower(u.LastName)))
}

// Index inserts or replaces the document of the user.
func (i *ContactIndex) Index(u domain.User) error {
	doc := contactDocument(u)
	return i.writer.Update(doc.ID(), doc)
}

// Rebuild indexes all the users in one batch.
func (i *ContactIndex) Rebuild(users []domain.User) error {
	batch := bluge.NewBatch()
	for _, u := range users {
		doc := contactDocument(u)
		batch.Update(doc.ID(), doc)
	}
	return i.writer.Batch(batch)
}

// Search returns the IDs of the users whose email or names contain the term.
func (i *ContactIndex) Search(ctx context.Context, term string) ([]string, error) {
	term = strings.NewReplacer("*", "", "?", "").Replace(strings.ToLower(strings.TrimSpace(term)))
	if term == "" {
		return nil, nil
	}

	pattern := "*" + term + "*"
	query := bluge.NewBooleanQuery().
		AddShould(bluge.NewWildcardQuery(pattern).SetField(fieldEmail)).
		AddShould(bluge.NewWildcardQuery(pattern).SetField(fieldFirstName)).
		AddShould(bluge.NewWildcardQuery(pattern).SetField(fieldLastName)).
		SetMinShould(1)

	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	matches, err := reader.Search(ctx, bluge.NewTopNSearch(i.limit, query))
	if err != nil {
		return nil, err
	}

	var ids []string
	match, err := matches.Next()
	for err == nil && match != nil {
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		match, err = matches.Next()
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (i *ContactIndex) Close() error {
	return i.writer.Close()
}
