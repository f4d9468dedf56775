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
	"io"
	"slices"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gorse-io/itemcf/common/log"
	"github.com/gorse-io/itemcf/config"
	"github.com/gorse-io/itemcf/dataset"
	"github.com/gorse-io/itemcf/logics"
	"github.com/gorse-io/itemcf/model"
	"github.com/gorse-io/itemcf/storage"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

var recommendCommand = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend items to users",
	RunE: func(cmd *cobra.Command, args []string) error {
		userIds, _ := cmd.Flags().GetStringSlice("user")
		output, _ := cmd.Flags().GetString("output")
		if output != outputTable && output != outputJSON {
			return errors.NotSupportedf("output format %q", output)
		}
		conf, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		matrix, err := loadRatingMatrix(cmd.Context(), conf)
		if err != nil {
			return errors.Trace(err)
		}
		recommender, err := logics.NewRecommender(matrix, conf.Recommend.Options())
		if err != nil {
			return errors.Trace(err)
		}
		results, err := recommender.RecommendBatch(cmd.Context(), userIds, conf.Recommend.Jobs)
		if err != nil {
			return errors.Trace(err)
		}
		return printRecommendations(cmd.OutOrStdout(), userIds, results, output)
	},
}

func init() {
	flags := recommendCommand.Flags()
	flags.StringSlice("user", nil, "users to recommend items to")
	flags.String("metric", model.SlopeOneMetric, "prediction algorithm (slopeone or cosine)")
	flags.Int("top-k", logics.DefaultTopK, "maximum number of recommendations per user")
	flags.Float64("min-rating", model.DefaultMinRating, "lower bound of the rating scale")
	flags.Float64("max-rating", model.DefaultMaxRating, "upper bound of the rating scale")
	flags.Int("jobs", 1, "number of goroutines")
	flags.String("data", "", "rating file, takes precedence over the database")
	flags.String("database", "", "rating store URL")
	flags.String("format", dataset.FormatCSV, "rating file format (csv or json)")
	flags.String("separator", ",", "field separator of csv files")
	flags.Bool("header", false, "skip the first line of csv files")
	flags.StringP("output", "o", outputTable, "output format (table or json)")
	_ = recommendCommand.MarkFlagRequired("user")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		log.Logger().Info("load config", zap.String("config", configPath))
	}
	conf, err := config.LoadConfig(configPath, cmd.Flags())
	if err != nil {
		return nil, errors.Trace(err)
	}
	return conf, nil
}

// loadRatingMatrix reads ratings from the rating file if configured, otherwise from
// the rating store.
func loadRatingMatrix(ctx context.Context, conf *config.Config) (*dataset.RatingMatrix, error) {
	if conf.Dataset.Path != "" {
		log.Logger().Info("load ratings from file",
			zap.String("path", conf.Dataset.Path),
			zap.String("format", conf.Dataset.Format))
		matrix, err := dataset.LoadFile(conf.Dataset.Path, conf.Dataset.Format, conf.Dataset.Separator, conf.Dataset.Header)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return matrix, nil
	}
	if conf.Database.DataStore == "" {
		return nil, errors.NotValidf("neither rating file nor rating store")
	}
	log.Logger().Info("load ratings from database", zap.String("database", log.RedactDBURL(conf.Database.DataStore)))
	database, err := storage.Open(conf.Database.DataStore, conf.Database.TablePrefix)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer database.Close()
	matrix, err := storage.LoadRatingMatrix(ctx, database)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return matrix, nil
}

// printRecommendations writes recommendations of users in the order of userIds.
func printRecommendations(w io.Writer, userIds []string, results map[string][]model.Score, output string) error {
	switch output {
	case outputJSON:
		data, err := json.Marshal(results)
		if err != nil {
			return errors.Trace(err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return errors.Trace(err)
	case outputTable:
		table := tablewriter.NewWriter(w)
		table.Header("User", "Rank", "Item", "Rating")
		seen := make([]string, 0, len(userIds))
		for _, userId := range userIds {
			if slices.Contains(seen, userId) {
				continue
			}
			seen = append(seen, userId)
			for i, score := range results[userId] {
				if err := table.Append([]string{
					userId,
					strconv.Itoa(i + 1),
					score.Id,
					strconv.FormatFloat(score.Score, 'f', -1, 64),
				}); err != nil {
					return errors.Trace(err)
				}
			}
		}
		return errors.Trace(table.Render())
	default:
		return errors.NotSupportedf("output format %q", output)
	}
}
