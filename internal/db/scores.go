package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("score not found")

const (
	OrderTimeSeconds = "time_seconds"
	OrderErrors      = "errors"
)

// ListOptions filters and orders a List call. Zero values mean "no filter".
type ListOptions struct {
	Classe   string
	GameType string
	// Query is a substring matched with LIKE against name, student_number
	// and game_type.
	Query   string
	OrderBy string
	Desc    bool
	Limit   int
}

// Store owns all reads and writes of the scores table.
type Store struct {
	conn *gorm.DB
}

func NewStore(conn *gorm.DB) *Store {
	return &Store{conn: conn}
}

// Insert writes score and returns the row as stored, including the id and
// created_at assigned by the database.
func (s *Store) Insert(ctx context.Context, score Score) (Score, error) {
	score.ID = 0
	var stored Score
	err := s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&score).Error; err != nil {
			return err
		}
		return tx.First(&stored, score.ID).Error
	})
	if err != nil {
		return Score{}, fmt.Errorf("insert score: %w", err)
	}
	return stored, nil
}

func (s *Store) Get(ctx context.Context, id uint) (Score, error) {
	var score Score
	err := s.conn.WithContext(ctx).First(&score, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Score{}, ErrNotFound
	}
	if err != nil {
		return Score{}, fmt.Errorf("get score %d: %w", id, err)
	}
	return score, nil
}

// List returns matching rows ordered by the primary key from opts and then
// errors ascending. With OrderBy errors the secondary key repeats the
// primary one, so ties come back in engine order.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Score, error) {
	query := s.conn.WithContext(ctx).Model(&Score{})
	if opts.Classe != "" {
		query = query.Where("classe = ?", opts.Classe)
	}
	if opts.Query != "" {
		like := "%" + opts.Query + "%"
		query = query.Where("(name LIKE ? OR student_number LIKE ? OR game_type LIKE ?)", like, like, like)
	}
	if opts.GameType != "" {
		query = query.Where("game_type = ?", opts.GameType)
	}
	field := OrderTimeSeconds
	if opts.OrderBy == OrderErrors {
		field = OrderErrors
	}
	query = query.Order(clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: field}, Desc: opts.Desc},
		{Column: clause.Column{Name: OrderErrors}},
	}})
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	rows := make([]Score, 0)
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return rows, nil
}

// Delete removes the row with id in a single statement.
func (s *Store) Delete(ctx context.Context, id uint) error {
	result := s.conn.WithContext(ctx).Delete(&Score{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete score %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.conn.WithContext(ctx).Model(&Score{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count scores: %w", err)
	}
	return total, nil
}

// Restore loads exported rows into an empty table. Rows get fresh ids in
// created_at order so id and created_at stay monotonic together.
func (s *Store) Restore(ctx context.Context, rows []Score) (int, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if total > 0 {
		return 0, fmt.Errorf("restore into non-empty table: %d rows present", total)
	}
	ordered := make([]Score, len(rows))
	copy(ordered, rows)
	now := time.Now().UTC().Truncate(time.Second)
	for i := range ordered {
		if ordered[i].CreatedAt.IsZero() {
			ordered[i].CreatedAt = now
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})
	for i := range ordered {
		ordered[i].ID = 0
	}
	if len(ordered) == 0 {
		return 0, nil
	}
	if err := s.conn.WithContext(ctx).CreateInBatches(&ordered, 200).Error; err != nil {
		return 0, fmt.Errorf("restore scores: %w", err)
	}
	return len(ordered), nil
}
