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

package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMatrix() *RatingMatrix {
	return NewRatingMatrix(map[string]map[string]float64{
		"Angelica": {"Blues Traveler": 3.5, "Broken Bells": 2.0, "Norah Jones": 4.5, "Phoenix": 5.0},
		"Bill":     {"Blues Traveler": 2.0, "Broken Bells": 3.5, "Deadmau5": 4.0, "Phoenix": 2.0},
		"Chan":     {"Blues Traveler": 5.0, "Broken Bells": 1.0, "Deadmau5": 1.0, "Norah Jones": 3.0},
	})
}

func TestRatingMatrix(t *testing.T) {
	m := newTestMatrix()
	assert.Equal(t, 3, m.CountUsers())
	assert.Equal(t, 5, m.CountItems())
	assert.Equal(t, 12, m.CountRatings())
	assert.Equal(t, []string{"Angelica", "Bill", "Chan"}, m.Users())
	assert.Equal(t, []string{"Blues Traveler", "Broken Bells", "Deadmau5", "Norah Jones", "Phoenix"}, m.Items())

	rating, ok := m.GetRating("Bill", "Deadmau5")
	assert.True(t, ok)
	assert.Equal(t, 4.0, rating)
	_, ok = m.GetRating("Angelica", "Deadmau5")
	assert.False(t, ok)
	_, ok = m.GetUserRatings("Nobody")
	assert.False(t, ok)
	itemRatings, ok := m.GetItemRatings("Deadmau5")
	assert.True(t, ok)
	assert.Equal(t, map[string]float64{"Bill": 4.0, "Chan": 1.0}, itemRatings)
}

func TestRatingMatrixTranspose(t *testing.T) {
	m := newTestMatrix()
	forward := mapset.NewThreadUnsafeSet[Rating]()
	for userId, ratings := range m.UserRatings() {
		for itemId, rating := range ratings {
			assert.Equal(t, rating, m.ItemRatings()[itemId][userId])
			forward.Add(Rating{UserId: userId, ItemId: itemId, Value: rating})
		}
	}
	backward := mapset.NewThreadUnsafeSet[Rating]()
	for itemId, ratings := range m.ItemRatings() {
		for userId, rating := range ratings {
			assert.Equal(t, rating, m.UserRatings()[userId][itemId])
			backward.Add(Rating{UserId: userId, ItemId: itemId, Value: rating})
		}
	}
	assert.True(t, forward.Equal(backward))
	assert.True(t, forward.Equal(mapset.NewThreadUnsafeSet(m.triples()...)))
}

func TestRatingMatrixVectors(t *testing.T) {
	m := newTestMatrix()
	bluesIdx, ok := m.ItemIndex("Blues Traveler")
	require.True(t, ok)
	phoenixIdx, ok := m.ItemIndex("Phoenix")
	require.True(t, ok)
	var users []string
	var pairs [][2]float64
	m.ItemVector(bluesIdx).ForIntersection(m.ItemVector(phoenixIdx), func(userIdx int32, a, b float64) {
		users = append(users, m.Users()[userIdx])
		pairs = append(pairs, [2]float64{a, b})
	})
	assert.Equal(t, []string{"Angelica", "Bill"}, users)
	assert.Equal(t, [][2]float64{{3.5, 5.0}, {2.0, 2.0}}, pairs)

	billIdx, ok := m.UserIndex("Bill")
	require.True(t, ok)
	vec := m.UserVector(billIdx)
	assert.Equal(t, 4, vec.Len())
	assert.Equal(t, 11.5, vec.Sum())
	assert.Equal(t, 2.875, vec.Mean())
	rating, ok := vec.Get(phoenixIdx)
	assert.True(t, ok)
	assert.Equal(t, 2.0, rating)
	norahIdx, _ := m.ItemIndex("Norah Jones")
	_, ok = vec.Get(norahIdx)
	assert.False(t, ok)
}

func TestRatingMatrixImmutable(t *testing.T) {
	input := map[string]map[string]float64{"a": {"x": 1}}
	m := NewRatingMatrix(input)
	input["a"]["y"] = 2
	input["b"] = map[string]float64{"x": 3}
	assert.Equal(t, 1, m.CountUsers())
	assert.Equal(t, []string{"x"}, m.Items())
}

func TestEmptyRatingMatrix(t *testing.T) {
	m := NewRatingMatrix(nil)
	assert.Zero(t, m.CountUsers())
	assert.Zero(t, m.CountItems())
	assert.Empty(t, m.Items())
	assert.Empty(t, m.ItemRatings())
	assert.Empty(t, m.triples())
}

func TestFromTriples(t *testing.T) {
	m := FromTriples([]Rating{
		{UserId: "a", ItemId: "x", Value: 1},
		{UserId: "a", ItemId: "y", Value: 2},
		{UserId: "a", ItemId: "x", Value: 3},
		{UserId: "b", ItemId: "y", Value: 4},
	})
	assert.Equal(t, 3, m.CountRatings())
	rating, _ := m.GetRating("a", "x")
	assert.Equal(t, 3.0, rating)
}

func TestLoadCSV(t *testing.T) {
	text := "user,item,rating\n" +
		"a,x,1\n" +
		"\n" +
		"a,\"y,z\",2.5\n" +
		"\"b\",\"say \"\"hi\"\"\",4,ignored\n"
	ratings, err := LoadCSV(strings.NewReader(text), ",", true)
	assert.NoError(t, err)
	assert.Equal(t, []Rating{
		{UserId: "a", ItemId: "x", Value: 1},
		{UserId: "a", ItemId: "y,z", Value: 2.5},
		{UserId: "b", ItemId: "say \"hi\"", Value: 4},
	}, ratings)

	_, err = LoadCSV(strings.NewReader("a::x::1"), "::", false)
	assert.True(t, errors.Is(err, errors.NotValid))
	assert.Contains(t, err.Error(), "separator")
	_, err = LoadCSV(strings.NewReader("a,x,1"), "", false)
	assert.True(t, errors.Is(err, errors.NotValid))
	ratings, err = LoadCSV(strings.NewReader("a|x|1\n"), "|", false)
	assert.NoError(t, err)
	assert.Equal(t, []Rating{{UserId: "a", ItemId: "x", Value: 1}}, ratings)
	_, err = LoadCSV(strings.NewReader("a\tx\toops\n"), "\t", false)
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = LoadCSV(strings.NewReader("a,x\n"), ",", false)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestLoadJSON(t *testing.T) {
	ratings, err := LoadJSON(strings.NewReader(`{"A": {"X": 3, "Y": 4}, "B": {"Z": 5}}`))
	assert.NoError(t, err)
	assert.Equal(t, map[string]map[string]float64{"A": {"X": 3, "Y": 4}, "B": {"Z": 5}}, ratings)
	_, err = LoadJSON(strings.NewReader(`{"A": [1, 2]}`))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "ratings.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("A,X,3\nA,Y,4\nB,X,4\n"), 0644))
	m, err := LoadFile(csvPath, FormatCSV, ",", false)
	assert.NoError(t, err)
	assert.Equal(t, []string{"X", "Y"}, m.Items())

	jsonPath := filepath.Join(dir, "ratings.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"A": {"X": 3}}`), 0644))
	m, err = LoadFile(jsonPath, FormatJSON, "", false)
	assert.NoError(t, err)
	assert.Equal(t, 1, m.CountRatings())

	_, err = LoadFile(csvPath, "xml", ",", false)
	assert.True(t, errors.Is(err, errors.NotSupported))
	_, err = LoadFile(filepath.Join(dir, "missing.csv"), FormatCSV, ",", false)
	assert.Error(t, err)
}
