package contest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// ErrMalformedFile indicates the catalog file is not valid JSON.
var ErrMalformedFile = errors.New("malformed catalog file")

// Load reads a catalog file shaped as
//
//	{"contests":[{"id":..,"instances":[{"index":..,"algorithm_id":..,"start":..,"finish":..}]}]}
//
// The returned catalog is never nil. On error it holds whatever could be
// read, so callers can report the error and carry on.
func Load(path string) (*Catalog, error) {
	c := NewCatalog()

	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read catalog %s: %w", path, err)
	}
	if !gjson.ValidBytes(data) {
		return c, fmt.Errorf("%w: %s", ErrMalformedFile, path)
	}

	var errs []error
	gjson.GetBytes(data, "contests").ForEach(func(_, contest gjson.Result) bool {
		id := contest.Get("id").String()
		if id == "" {
			errs = append(errs, errors.New("contest without id"))
			return true
		}
		contest.Get("instances").ForEach(func(_, inst gjson.Result) bool {
			def, err := parseInstance(inst)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s %s: %w", id, inst.Get("index").String(), err))
				return true
			}
			stored, ok := c.Get(id, inst.Get("index").String(), true)
			if !ok {
				errs = append(errs, fmt.Errorf("%s: instance without index", id))
				return true
			}
			*stored = def
			return true
		})
		return true
	})

	return c, errors.Join(errs...)
}

func parseInstance(inst gjson.Result) (Definition, error) {
	start, err := time.Parse(time.RFC3339, inst.Get("start").String())
	if err != nil {
		return Definition{}, fmt.Errorf("start: %w", err)
	}
	finish, err := time.Parse(time.RFC3339, inst.Get("finish").String())
	if err != nil {
		return Definition{}, fmt.Errorf("finish: %w", err)
	}
	def := Definition{
		AlgorithmID: inst.Get("algorithm_id").String(),
		Timeframe:   Timeframe{Start: start.UTC(), Finish: finish.UTC()},
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// Marshal renders the catalog in the file format read by Load. Contests are
// grouped in order of first registration.
func (c *Catalog) Marshal() ([]byte, error) {
	doc := `{"contests":[]}`
	for _, id := range c.ContestIDs() {
		entry, err := sjson.Set(`{}`, "id", id)
		if err != nil {
			return nil, err
		}
		if entry, err = sjson.SetRaw(entry, "instances", `[]`); err != nil {
			return nil, err
		}
		indices, _ := c.Indices(id)
		for _, index := range indices {
			inst, err := marshalInstance(index, c.byID[id][index])
			if err != nil {
				return nil, err
			}
			if entry, err = sjson.SetRaw(entry, "instances.-1", inst); err != nil {
				return nil, err
			}
		}
		if doc, err = sjson.SetRaw(doc, "contests.-1", entry); err != nil {
			return nil, err
		}
	}
	return pretty.Pretty([]byte(doc)), nil
}

func marshalInstance(index string, def *Definition) (string, error) {
	inst := `{}`
	var err error
	for _, f := range []struct {
		path  string
		value string
	}{
		{"index", index},
		{"algorithm_id", def.AlgorithmID},
		{"start", def.Timeframe.Start.UTC().Format(time.RFC3339)},
		{"finish", def.Timeframe.Finish.UTC().Format(time.RFC3339)},
	} {
		if inst, err = sjson.Set(inst, f.path, f.value); err != nil {
			return "", err
		}
	}
	return inst, nil
}

// Save writes the catalog to path, replacing any existing file.
func (c *Catalog) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create catalog dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write catalog %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace catalog %s: %w", path, err)
	}
	return nil
}
