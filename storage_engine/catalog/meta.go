package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"

	"StrataDB/types"

	"github.com/pkg/errors"
)

// WriteMeta persists meta as dir/meta.json. The file is written next to the
// old one and renamed over it, so a reader never sees half a schema.
func WriteMeta(dir string, meta types.RelationMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode relation meta")
	}
	path := filepath.Join(dir, MetaFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	return errors.Wrapf(os.Rename(tmp, path), "replace %s", path)
}

// ReadMeta loads and validates dir/meta.json.
func ReadMeta(dir string) (types.RelationMeta, error) {
	path := filepath.Join(dir, MetaFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return types.RelationMeta{}, errors.Wrapf(err, "read %s", path)
	}
	var meta types.RelationMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return types.RelationMeta{}, errors.Wrapf(err, "parse %s", path)
	}
	if err := meta.Validate(); err != nil {
		return types.RelationMeta{}, errors.Wrapf(err, "%s", path)
	}
	return meta, nil
}
