package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTable implements Table over a single database table through GORM.
// Rows are read and written as maps so that legacy columns with spaces in
// their names survive the round trip untouched.
type GormTable struct {
	db   *gorm.DB
	name string
}

func NewGormTable(db *gorm.DB, name string) *GormTable {
	return &GormTable{db: db, name: name}
}

// quoteColumn backtick-quotes a column name. Legacy columns contain spaces,
// so they cannot be interpolated bare.
func quoteColumn(col string) string {
	return "`" + strings.ReplaceAll(col, "`", "") + "`"
}

func applyCond(tx *gorm.DB, c Cond) *gorm.DB {
	if len(c.Values) == 1 {
		return tx.Where(fmt.Sprintf("%s = ?", quoteColumn(c.Column)), c.Values[0])
	}
	return tx.Where(fmt.Sprintf("%s IN ?", quoteColumn(c.Column)), c.Values)
}

func (t *GormTable) Select(ctx context.Context, q Query) ([]Row, error) {
	tx := t.db.WithContext(ctx).Table(t.name)
	for _, c := range q.Match {
		tx = applyCond(tx, c)
	}
	if len(q.Any) > 0 {
		group := t.db.Table(t.name)
		for i, c := range q.Any {
			if i == 0 {
				group = applyCond(group, c)
			} else {
				if len(c.Values) == 1 {
					group = group.Or(fmt.Sprintf("%s = ?", quoteColumn(c.Column)), c.Values[0])
				} else {
					group = group.Or(fmt.Sprintf("%s IN ?", quoteColumn(c.Column)), c.Values)
				}
			}
		}
		tx = tx.Where(group)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []map[string]interface{}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row(r)
	}
	return out, nil
}

func (t *GormTable) Get(ctx context.Context, id string) (Row, error) {
	var row map[string]interface{}
	err := t.db.WithContext(ctx).Table(t.name).Where("`id` = ?", id).Take(&row).Error
	if err != nil {
		return nil, err
	}
	return Row(row), nil
}

func (t *GormTable) Insert(ctx context.Context, row Row) (Row, error) {
	stored := make(map[string]interface{}, len(row)+1)
	for k, v := range row {
		stored[k] = v
	}
	if _, ok := stored["id"]; !ok {
		stored["id"] = uuid.NewString()
	}
	if err := t.db.WithContext(ctx).Table(t.name).Create(stored).Error; err != nil {
		return nil, err
	}
	return Row(stored), nil
}

func (t *GormTable) Update(ctx context.Context, id string, values Row) error {
	result := t.db.WithContext(ctx).Table(t.name).
		Where("`id` = ?", id).
		Updates(map[string]interface{}(values))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no row found in %s with id %s", t.name, id)
	}
	return nil
}

func (t *GormTable) Delete(ctx context.Context, id string) error {
	result := t.db.WithContext(ctx).Table(t.name).Where("`id` = ?", id).Delete(nil)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no row found in %s with id %s", t.name, id)
	}
	return nil
}
