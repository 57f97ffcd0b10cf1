package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aurora-planner/aurora/internal/db"
	"github.com/aurora-planner/aurora/internal/models"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a document does not exist in the collection.
var ErrNotFound = errors.New("store: document not found")

// createdAtField is the document field backed by the created_at column.
const createdAtField = "createdAt"

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Snapshot is a stored document read back from a collection.
type Snapshot struct {
	ID        string
	Data      datatypes.JSON
	CreatedAt time.Time
}

// Decode unmarshals the document body into out.
func (s Snapshot) Decode(out any) error {
	if errUnmarshal := json.Unmarshal(s.Data, out); errUnmarshal != nil {
		return fmt.Errorf("store: decode %s: %w", s.ID, errUnmarshal)
	}
	return nil
}

// Query narrows and orders a collection read.
type Query struct {
	OrderBy    string // Document field; empty or createdAt uses the creation timestamp.
	Descending bool
	Limit      int
	MatchField string // Optional text field filtered with MatchText.
	MatchText  string // Case-insensitive substring.
}

// GormDocumentStore persists JSON documents grouped by collection path via GORM.
type GormDocumentStore struct {
	db    *gorm.DB
	now   func() time.Time
	newID func() string
}

// NewGormDocumentStore constructs a GormDocumentStore.
func NewGormDocumentStore(conn *gorm.DB) *GormDocumentStore {
	return &GormDocumentStore{
		db:    conn,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Add inserts data as a new document and returns the generated ID.
// A createdAt field is stamped when the document does not carry one.
func (s *GormDocumentStore) Add(ctx context.Context, collection string, data any) (string, error) {
	if s == nil || s.db == nil {
		return "", fmt.Errorf("gorm document store: not initialized")
	}
	collection = strings.TrimSpace(collection)
	if collection == "" {
		return "", fmt.Errorf("gorm document store: collection is empty")
	}

	payload, errMarshal := json.Marshal(data)
	if errMarshal != nil {
		return "", fmt.Errorf("gorm document store: marshal: %w", errMarshal)
	}
	if !gjson.ParseBytes(payload).IsObject() {
		return "", fmt.Errorf("gorm document store: document must be a json object")
	}

	now := s.now().UTC()
	if payload, errMarshal = sjson.DeleteBytes(payload, "id"); errMarshal != nil {
		return "", fmt.Errorf("gorm document store: strip id: %w", errMarshal)
	}
	created := gjson.GetBytes(payload, createdAtField)
	if !created.Exists() || created.Time().IsZero() {
		if payload, errMarshal = sjson.SetBytes(payload, createdAtField, now.Format(time.RFC3339Nano)); errMarshal != nil {
			return "", fmt.Errorf("gorm document store: stamp createdAt: %w", errMarshal)
		}
	} else {
		now = created.Time().UTC()
	}

	record := models.Document{
		ID:         s.newID(),
		Collection: collection,
		Data:       datatypes.JSON(payload),
		CreatedAt:  now,
	}
	if errCreate := s.db.WithContext(ctx).Create(&record).Error; errCreate != nil {
		return "", fmt.Errorf("gorm document store: insert: %w", errCreate)
	}
	return record.ID, nil
}

// Get loads one document by ID.
func (s *GormDocumentStore) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	if s == nil || s.db == nil {
		return Snapshot{}, fmt.Errorf("gorm document store: not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Snapshot{}, ErrNotFound
	}

	var row models.Document
	errFind := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", strings.TrimSpace(collection), id).
		First(&row).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("gorm document store: get: %w", errFind)
	}
	return snapshotOf(row), nil
}

// List returns the documents of a collection ordered as requested.
func (s *GormDocumentStore) List(ctx context.Context, collection string, q Query) ([]Snapshot, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm document store: not initialized")
	}

	tx := s.db.WithContext(ctx).Where("collection = ?", strings.TrimSpace(collection))

	if text := strings.TrimSpace(q.MatchText); text != "" && q.MatchField != "" {
		if !fieldNamePattern.MatchString(q.MatchField) {
			return nil, fmt.Errorf("gorm document store: invalid field %q", q.MatchField)
		}
		expr := db.CaseInsensitiveLikeExpr(s.db, db.JSONExtractTextExpr(s.db, "data", q.MatchField))
		tx = tx.Where(expr, db.NormalizeLikePattern(s.db, "%"+db.EscapeLike(text)+"%"))
	}

	direction := "ASC"
	if q.Descending {
		direction = "DESC"
	}
	switch field := strings.TrimSpace(q.OrderBy); {
	case field == "" || field == createdAtField:
		tx = tx.Order("created_at " + direction)
	case fieldNamePattern.MatchString(field):
		tx = tx.Order(db.JSONExtractTextExpr(s.db, "data", field) + " " + direction)
	default:
		return nil, fmt.Errorf("gorm document store: invalid order field %q", field)
	}
	tx = tx.Order("id ASC")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []models.Document
	if errFind := tx.Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("gorm document store: list: %w", errFind)
	}
	out := make([]Snapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, snapshotOf(row))
	}
	return out, nil
}

// QueryOrdered lists a whole collection ordered by one document field.
func (s *GormDocumentStore) QueryOrdered(ctx context.Context, collection, field string, descending bool) ([]Snapshot, error) {
	return s.List(ctx, collection, Query{OrderBy: field, Descending: descending})
}

// Delete removes a document by ID.
func (s *GormDocumentStore) Delete(ctx context.Context, collection, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm document store: not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}

	res := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", strings.TrimSpace(collection), id).
		Delete(&models.Document{})
	if res.Error != nil {
		return fmt.Errorf("gorm document store: delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func snapshotOf(row models.Document) Snapshot {
	return Snapshot{ID: row.ID, Data: row.Data, CreatedAt: row.CreatedAt}
}
