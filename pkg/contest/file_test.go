package contest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contests.json")

	c := NewCatalog()
	iaru, _ := c.Get("IARU-HF", "2024", true)
	iaru.AlgorithmID = "IARU-HF"
	iaru.Timeframe = Timeframe{
		Start:  time.Date(2024, 7, 13, 12, 0, 0, 0, time.UTC),
		Finish: time.Date(2024, 7, 14, 12, 0, 0, 0, time.UTC),
	}
	club, _ := c.Get("CLUB-SPRINT", "jan", true)
	club.AlgorithmID = "Basic"
	club.Timeframe = Timeframe{
		Start:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Finish: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, c.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Len())

	e, ok := loaded.EntryAt(0)
	require.True(t, ok)
	assert.Equal(t, "IARU-HF", e.ContestID)
	assert.Equal(t, "2024", e.Instance)
	assert.Equal(t, "IARU-HF", e.Definition.AlgorithmID)
	assert.True(t, iaru.Timeframe.Start.Equal(e.Definition.Timeframe.Start))
	assert.True(t, iaru.Timeframe.Finish.Equal(e.Definition.Timeframe.Finish))

	def, ok := loaded.Get("CLUB-SPRINT", "jan", false)
	require.True(t, ok)
	assert.Equal(t, "Basic", def.AlgorithmID)
}

func TestLoadMissingFileReturnsEmptyCatalog(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 0, c.Len())
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	c, err := Load(path)
	assert.ErrorIs(t, err, ErrMalformedFile)
	assert.Equal(t, 0, c.Len())
}

func TestLoadPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.json")
	doc := `{"contests":[
	  {"id":"GOOD","instances":[{"index":"1","algorithm_id":"Basic","start":"2024-01-01T00:00:00Z","finish":"2024-01-02T00:00:00Z"}]},
	  {"id":"BACKWARDS","instances":[{"index":"1","algorithm_id":"Basic","start":"2024-01-02T00:00:00Z","finish":"2024-01-01T00:00:00Z"}]},
	  {"id":"BADTIME","instances":[{"index":"1","algorithm_id":"Basic","start":"yesterday","finish":"2024-01-01T00:00:00Z"}]}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	c, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTimeframe)
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("GOOD", "1", false)
	assert.True(t, ok)
}

func TestMarshalShape(t *testing.T) {
	c := NewCatalog()
	for _, index := range []string{"2023", "2024"} {
		def, _ := c.Get("IARU-HF", index, true)
		def.AlgorithmID = "IARU-HF"
		def.Timeframe = Timeframe{
			Start:  time.Date(2024, 7, 13, 12, 0, 0, 0, time.UTC),
			Finish: time.Date(2024, 7, 14, 12, 0, 0, 0, time.UTC),
		}
	}

	data, err := c.Marshal()
	require.NoError(t, err)
	assert.Equal(t, int64(1), gjson.GetBytes(data, "contests.#").Int())
	assert.Equal(t, "IARU-HF", gjson.GetBytes(data, "contests.0.id").String())
	assert.Equal(t, "2024", gjson.GetBytes(data, "contests.0.instances.1.index").String())
	assert.Equal(t, "2024-07-14T12:00:00Z", gjson.GetBytes(data, "contests.0.instances.0.finish").String())
}
