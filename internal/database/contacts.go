package database

import (
	"context"
	"sort"
	"strings"

	"wati-proxy/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SearchLimit caps free-text contact search results.
const SearchLimit = 200

// upsertBatchSize keeps each bulk statement well under the driver's bind
// parameter limit.
const upsertBatchSize = 500

type ContactStore struct {
	db *gorm.DB
}

func NewContactStore(db *gorm.DB) *ContactStore {
	return &ContactStore{db: db}
}

// List returns one page of contacts, newest first.
func (s *ContactStore) List(ctx context.Context, limit, offset int) ([]models.Contact, error) {
	contacts := []models.Contact{}
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&contacts).Error
	return contacts, err
}

func (s *ContactStore) Get(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	var contact models.Contact
	if err := s.db.WithContext(ctx).First(&contact, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &contact, nil
}

func (s *ContactStore) Create(ctx context.Context, contact *models.Contact) error {
	return s.db.WithContext(ctx).Create(contact).Error
}

// Upsert inserts the batch keyed on phone, in chunks of upsertBatchSize rows
// inside one transaction. Rows whose phone already exists get name, email,
// company and tags overwritten. When the batch repeats a phone the last entry
// wins.
func (s *ContactStore) Upsert(ctx context.Context, contacts []models.Contact) ([]models.Contact, error) {
	batch := dedupeByPhone(contacts)
	if len(batch) == 0 {
		return []models.Contact{}, nil
	}

	phones := make([]string, len(batch))
	for i, c := range batch {
		phones[i] = c.Phone
	}

	saved := make([]models.Contact, 0, len(batch))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "email", "company", "tags", "updated_at"}),
		}).CreateInBatches(&batch, upsertBatchSize).Error
		if err != nil {
			return err
		}

		for start := 0; start < len(phones); start += upsertBatchSize {
			end := min(start+upsertBatchSize, len(phones))
			var chunk []models.Contact
			if err := tx.Where("phone IN ?", phones[start:end]).Find(&chunk).Error; err != nil {
				return err
			}
			saved = append(saved, chunk...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(saved, func(i, j int) bool {
		return saved[i].CreatedAt.After(saved[j].CreatedAt)
	})
	return saved, nil
}

// Update applies only the given columns and returns the updated row.
func (s *ContactStore) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Contact, error) {
	if err := updateByID(ctx, s.db, &models.Contact{}, id, fields); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Search matches q case-insensitively as a substring of name, phone, email or company.
func (s *ContactStore) Search(ctx context.Context, q string) ([]models.Contact, error) {
	contacts := []models.Contact{}
	q = strings.TrimSpace(q)
	if q == "" {
		return contacts, nil
	}

	like := "%" + escapeLike(strings.ToLower(q)) + "%"
	err := s.db.WithContext(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(phone) LIKE ? ESCAPE '\' OR LOWER(COALESCE(email, '')) LIKE ? ESCAPE '\' OR LOWER(COALESCE(company, '')) LIKE ? ESCAPE '\'`,
			like, like, like, like).
		Order("created_at DESC").
		Limit(SearchLimit).
		Find(&contacts).Error
	return contacts, err
}

func (s *ContactStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.Contact{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func dedupeByPhone(contacts []models.Contact) []models.Contact {
	index := make(map[string]int, len(contacts))
	out := make([]models.Contact, 0, len(contacts))
	for _, c := range contacts {
		if i, seen := index[c.Phone]; seen {
			out[i] = c
			continue
		}
		index[c.Phone] = len(out)
		out = append(out, c)
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
