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

package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/gorse-io/itemcf/dataset"
	"github.com/gorse-io/itemcf/logics"
	"github.com/gorse-io/itemcf/model"
	"github.com/juju/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the configuration for itemcf.
type Config struct {
	Recommend RecommendConfig `mapstructure:"recommend"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Dataset   DatasetConfig   `mapstructure:"dataset"`
}

// RecommendConfig is the configuration of the recommender. Unknown metrics and
// non-positive top k are accepted here, the recommender falls back to defaults.
type RecommendConfig struct {
	Metric    string  `mapstructure:"metric"`
	TopK      int     `mapstructure:"top_k"`
	MinRating float64 `mapstructure:"min_rating"`
	MaxRating float64 `mapstructure:"max_rating" validate:"gtfield=MinRating"`
	Jobs      int     `mapstructure:"jobs" validate:"gte=1"`
}

// DatabaseConfig is the configuration of the rating store.
type DatabaseConfig struct {
	DataStore   string `mapstructure:"data_store" validate:"omitempty,startswith=sqlite://|startswith=mysql://|startswith=postgres://|startswith=postgresql://"`
	TablePrefix string `mapstructure:"table_prefix"`
}

// DatasetConfig is the configuration of the rating file.
type DatasetConfig struct {
	Path      string `mapstructure:"path"`
	Format    string `mapstructure:"format" validate:"oneof=csv json"`
	Separator string `mapstructure:"separator" validate:"len=1"`
	Header    bool   `mapstructure:"header"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Recommend: RecommendConfig{
			Metric:    model.SlopeOneMetric,
			TopK:      logics.DefaultTopK,
			MinRating: model.DefaultMinRating,
			MaxRating: model.DefaultMaxRating,
			Jobs:      1,
		},
		Dataset: DatasetConfig{
			Format:    dataset.FormatCSV,
			Separator: ",",
		},
	}
}

// Options converts the configuration to recommender options.
func (c *RecommendConfig) Options() logics.Options {
	return logics.Options{
		Metric:    c.Metric,
		TopK:      c.TopK,
		MinRating: c.MinRating,
		MaxRating: c.MaxRating,
		Jobs:      c.Jobs,
	}
}

func (config *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(config); err != nil {
		return errors.NewNotValid(err, "invalid config")
	}
	return nil
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [recommend]
	v.SetDefault("recommend.metric", defaultConfig.Recommend.Metric)
	v.SetDefault("recommend.top_k", defaultConfig.Recommend.TopK)
	v.SetDefault("recommend.min_rating", defaultConfig.Recommend.MinRating)
	v.SetDefault("recommend.max_rating", defaultConfig.Recommend.MaxRating)
	v.SetDefault("recommend.jobs", defaultConfig.Recommend.Jobs)
	// [database]
	v.SetDefault("database.data_store", defaultConfig.Database.DataStore)
	v.SetDefault("database.table_prefix", defaultConfig.Database.TablePrefix)
	// [dataset]
	v.SetDefault("dataset.path", defaultConfig.Dataset.Path)
	v.SetDefault("dataset.format", defaultConfig.Dataset.Format)
	v.SetDefault("dataset.separator", defaultConfig.Dataset.Separator)
	v.SetDefault("dataset.header", defaultConfig.Dataset.Header)
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"metric":     "recommend.metric",
	"top-k":      "recommend.top_k",
	"min-rating": "recommend.min_rating",
	"max-rating": "recommend.max_rating",
	"jobs":       "recommend.jobs",
	"database":   "database.data_store",
	"data":       "dataset.path",
	"format":     "dataset.format",
	"separator":  "dataset.separator",
	"header":     "dataset.header",
}

// LoadConfig loads configuration from a file (TOML, YAML or JSON by extension).
// Values are overridden by ITEMCF_* environment variables, e.g. ITEMCF_RECOMMEND_TOP_K,
// and then by flags changed in flagSet. An empty path skips the file, a nil flagSet
// skips flags.
func LoadConfig(path string, flagSet *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefault(v)
	v.SetEnvPrefix("itemcf")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if flagSet != nil {
		for name, key := range flagKeys {
			if flag := flagSet.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, errors.Trace(err)
				}
			}
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "read config %s", path)
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf, func(c *mapstructure.DecoderConfig) {
		c.ErrorUnused = true
		c.WeaklyTypedInput = true
	}); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}
