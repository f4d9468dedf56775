// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"database/sql"

	"github.com/gorse-io/itemcf/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SQLDriver int

const (
	MySQL SQLDriver = iota
	Postgres
	SQLite
)

// SQLRating is the row of the ratings table.
type SQLRating struct {
	UserId string  `gorm:"column:user_id;type:varchar(256);not null;primaryKey"`
	ItemId string  `gorm:"column:item_id;type:varchar(256);not null;primaryKey"`
	Rating float64 `gorm:"column:rating;not null"`
}

type SQLDatabase struct {
	TablePrefix
	gormDB *gorm.DB
	client *sql.DB
	driver SQLDriver
}

// Init creates the ratings table if it does not exist.
func (d *SQLDatabase) Init() error {
	tx := d.gormDB
	if d.driver == MySQL {
		tx = tx.Set("gorm:table_options", "ENGINE=InnoDB")
	}
	if err := tx.AutoMigrate(&SQLRating{}); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (d *SQLDatabase) Close() error {
	return d.client.Close()
}

// Purge deletes all ratings.
func (d *SQLDatabase) Purge() error {
	err := d.gormDB.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&SQLRating{}).Error
	return errors.Trace(err)
}

func (d *SQLDatabase) BatchInsertRatings(ctx context.Context, ratings []dataset.Rating) error {
	return errors.Trace(insertRatings(d.gormDB.WithContext(ctx), ratings))
}

// ReplaceRatings deletes all ratings and inserts new ones in a transaction. Existing
// ratings are kept if any statement fails.
func (d *SQLDatabase) ReplaceRatings(ctx context.Context, ratings []dataset.Rating) error {
	err := d.gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&SQLRating{}).Error; err != nil {
			return errors.Trace(err)
		}
		return insertRatings(tx, ratings)
	})
	return errors.Trace(err)
}

// insertRatings upserts ratings with one statement per BatchSize rows.
func insertRatings(tx *gorm.DB, ratings []dataset.Rating) error {
	if len(ratings) == 0 {
		return nil
	}
	// A single statement must not touch the same key twice.
	positions := make(map[lo.Tuple2[string, string]]int, len(ratings))
	rows := make([]SQLRating, 0, len(ratings))
	for _, rating := range ratings {
		key := lo.Tuple2[string, string]{A: rating.UserId, B: rating.ItemId}
		row := SQLRating{UserId: rating.UserId, ItemId: rating.ItemId, Rating: rating.Value}
		if pos, exist := positions[key]; exist {
			rows[pos] = row
		} else {
			positions[key] = len(rows)
			rows = append(rows, row)
		}
	}
	for _, chunk := range lo.Chunk(rows, BatchSize) {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating"}),
		}).Create(&chunk).Error; err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func (d *SQLDatabase) GetRatings(ctx context.Context) ([]dataset.Rating, error) {
	var rows []SQLRating
	if err := d.gormDB.WithContext(ctx).Order("user_id, item_id").Find(&rows).Error; err != nil {
		return nil, errors.Trace(err)
	}
	return lo.Map(rows, func(row SQLRating, _ int) dataset.Rating {
		return dataset.Rating{UserId: row.UserId, ItemId: row.ItemId, Value: row.Rating}
	}), nil
}

func (d *SQLDatabase) CountRatings(ctx context.Context) (int64, error) {
	var count int64
	if err := d.gormDB.WithContext(ctx).Model(&SQLRating{}).Count(&count).Error; err != nil {
		return 0, errors.Trace(err)
	}
	return count, nil
}
