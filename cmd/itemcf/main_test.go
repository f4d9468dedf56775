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
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorse-io/itemcf/config"
	"github.com/gorse-io/itemcf/model"
	"github.com/gorse-io/itemcf/storage"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallCSV = "user,item,rating\n" +
	"A,X,3\nA,Y,4\n" +
	"B,X,4\nB,Y,2\nB,Z,5\n" +
	"C,Y,5\nC,Z,3\n"

func writeRatings(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "ratings.csv")
	require.NoError(t, os.WriteFile(path, []byte(smallCSV), 0644))
	return path
}

func TestRecommendCommand(t *testing.T) {
	path := writeRatings(t)
	var buf bytes.Buffer
	rootCommand.SetOut(&buf)
	rootCommand.SetArgs([]string{"recommend", "--user", "A,C", "--data", path, "--header", "--output", "json"})
	err := rootCommand.Execute()
	assert.NoError(t, err)
	assert.JSONEq(t, `{"A":[{"item_id":"Z","rating":4.33}],"C":[{"item_id":"X","rating":4.33}]}`, buf.String())
}

func TestLoadRatingMatrix(t *testing.T) {
	ctx := context.Background()
	path := writeRatings(t)

	// from file
	conf := config.GetDefaultConfig()
	conf.Dataset.Path = path
	conf.Dataset.Header = true
	matrix, err := loadRatingMatrix(ctx, conf)
	assert.NoError(t, err)
	assert.Equal(t, 7, matrix.CountRatings())

	// from database
	conf = config.GetDefaultConfig()
	conf.Database.DataStore = fmt.Sprintf("sqlite://%s/ratings.db", t.TempDir())
	database, err := storage.Open(conf.Database.DataStore, conf.Database.TablePrefix)
	require.NoError(t, err)
	count, err := importRatings(ctx, database, path, ",", true, false)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, database.Close())
	matrix, err = loadRatingMatrix(ctx, conf)
	assert.NoError(t, err)
	assert.Equal(t, 3, matrix.CountUsers())
	assert.Equal(t, []string{"X", "Y", "Z"}, matrix.Items())

	// no source
	_, err = loadRatingMatrix(ctx, config.GetDefaultConfig())
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestImportRatings(t *testing.T) {
	ctx := context.Background()
	path := writeRatings(t)
	database, err := storage.Open(fmt.Sprintf("sqlite://%s/ratings.db", t.TempDir()), "")
	require.NoError(t, err)
	defer database.Close()
	count, err := importRatings(ctx, database, path, ",", true, false)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), count)
	// import again
	count, err = importRatings(ctx, database, path, ",", true, false)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), count)
	// a malformed file with purge leaves the store untouched
	_, err = importRatings(ctx, database, path, ",", false, true)
	assert.True(t, errors.Is(err, errors.NotValid))
	count, err = database.CountRatings(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), count)
	// purge and import a smaller file
	smaller := filepath.Join(t.TempDir(), "smaller.csv")
	require.NoError(t, os.WriteFile(smaller, []byte("A,X,1\nD,W,2\n"), 0644))
	count, err = importRatings(ctx, database, smaller, ",", false, true)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)
	matrix, err := storage.LoadRatingMatrix(ctx, database)
	assert.NoError(t, err)
	rating, ok := matrix.GetRating("A", "X")
	assert.True(t, ok)
	assert.Equal(t, 1.0, rating)
	// missing file
	_, err = importRatings(ctx, database, filepath.Join(t.TempDir(), "missing.csv"), ",", false, false)
	assert.Error(t, err)
}

func TestPrintRecommendations(t *testing.T) {
	results := map[string][]model.Score{
		"A": {{Id: "Z", Score: 4.33}},
		"C": {{Id: "X", Score: 2.13}, {Id: "W", Score: 1.5}},
	}
	var buf bytes.Buffer
	err := printRecommendations(&buf, []string{"C", "A"}, results, outputJSON)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"A":[{"item_id":"Z","rating":4.33}],"C":[{"item_id":"X","rating":2.13},{"item_id":"W","rating":1.5}]}`, buf.String())

	buf.Reset()
	err = printRecommendations(&buf, []string{"C", "A", "C"}, results, outputTable)
	assert.NoError(t, err)
	text := buf.String()
	assert.Contains(t, text, "2.13")
	assert.Contains(t, text, "4.33")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("2.13")), bytes.Index(buf.Bytes(), []byte("4.33")))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("2.13")))

	err = printRecommendations(&buf, nil, results, "xml")
	assert.True(t, errors.Is(err, errors.NotSupported))
}
