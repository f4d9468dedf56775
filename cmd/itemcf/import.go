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

package main

import (
	"context"
	"os"

	"github.com/gorse-io/itemcf/common/log"
	"github.com/gorse-io/itemcf/dataset"
	"github.com/gorse-io/itemcf/storage"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importCommand = &cobra.Command{
	Use:   "import",
	Short: "Import ratings from a csv file into the rating store",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		if conf.Dataset.Path == "" {
			return errors.NotValidf("empty rating file")
		}
		if conf.Database.DataStore == "" {
			return errors.NotValidf("empty rating store")
		}
		purge, _ := cmd.Flags().GetBool("purge")
		database, err := storage.Open(conf.Database.DataStore, conf.Database.TablePrefix)
		if err != nil {
			return errors.Trace(err)
		}
		defer database.Close()
		count, err := importRatings(cmd.Context(), database, conf.Dataset.Path, conf.Dataset.Separator, conf.Dataset.Header, purge)
		if err != nil {
			return errors.Trace(err)
		}
		log.Logger().Info("import ratings successfully",
			zap.String("path", conf.Dataset.Path),
			zap.String("database", log.RedactDBURL(conf.Database.DataStore)),
			zap.Int64("ratings", count))
		return nil
	},
}

func init() {
	flags := importCommand.Flags()
	flags.String("data", "", "rating file in csv format")
	flags.String("database", "", "rating store URL")
	flags.String("separator", ",", "field separator of csv files")
	flags.Bool("header", false, "skip the first line of csv files")
	flags.Bool("purge", false, "delete existing ratings before import")
}

// importRatings copies a csv file into the database and returns the number of
// ratings stored afterwards. The file is parsed before anything is written, and a
// purge only takes effect together with the new ratings.
func importRatings(ctx context.Context, database storage.Database, path, sep string, header, purge bool) (int64, error) {
	if err := database.Init(); err != nil {
		return 0, errors.Trace(err)
	}
	ratings, err := readRatings(path, sep, header)
	if err != nil {
		return 0, errors.Trace(err)
	}
	bar := progressbar.Default(int64(len(ratings)), "Importing ratings")
	if purge {
		if err = database.ReplaceRatings(ctx, ratings); err != nil {
			return 0, errors.Trace(err)
		}
		_ = bar.Add(len(ratings))
	} else {
		for _, chunk := range lo.Chunk(ratings, storage.BatchSize) {
			if err = database.BatchInsertRatings(ctx, chunk); err != nil {
				return 0, errors.Trace(err)
			}
			_ = bar.Add(len(chunk))
		}
	}
	_ = bar.Finish()
	return database.CountRatings(ctx)
}

func readRatings(path, sep string, header bool) ([]dataset.Rating, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	stat, err := file.Stat()
	if err != nil {
		return nil, errors.Trace(err)
	}
	pbReader := progressbar.NewReader(file, progressbar.DefaultBytes(
		stat.Size(),
		"Loading ratings",
	))
	ratings, err := dataset.LoadCSV(&pbReader, sep, header)
	if err != nil {
		return nil, errors.Annotatef(err, "load %s", path)
	}
	return ratings, nil
}
