package livestatus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DynamicColumn builds a Column from arguments supplied in the request, as
// in "mk_logwatch_file:TITLE:FILE". The built column belongs to the query.
type DynamicColumn struct {
	name        string
	description string
	offsets     Offsets
	factory     func(name, args string) (Column, error)
}

func NewDynamicColumn(name, description string, o Offsets, factory func(name, args string) (Column, error)) *DynamicColumn {
	return &DynamicColumn{name: name, description: description, offsets: o, factory: factory}
}

func (d *DynamicColumn) Name() string        { return d.name }
func (d *DynamicColumn) Description() string { return d.description }

// CreateColumn builds a column called name from args.
func (d *DynamicColumn) CreateColumn(name, args string) (Column, error) {
	return d.factory(name, args)
}

// newLogwatchColumn returns a factory for blob columns serving
// <base>/<host>/<file>, where hostName reads the host from the row object.
func newLogwatchColumn[T any](base string, o Offsets, hostName func(*T) string) func(name, args string) (Column, error) {
	return func(name, args string) (Column, error) {
		file := strings.ReplaceAll(args, "\\", "/")
		if file == "" {
			return nil, fmt.Errorf("invalid arguments for column '%s': missing file name", name)
		}
		if !filepath.IsLocal(file) || strings.Contains(file, "/") {
			return nil, fmt.Errorf("invalid arguments for column '%s': file name '%s' contains invalid characters", name, args)
		}
		return NewBlobColumn(name, "Contents of a logwatch file", o, func(t *T) []byte {
			host := hostName(t)
			if base == "" || host == "" || !filepath.IsLocal(host) {
				return nil
			}
			data, err := os.ReadFile(filepath.Join(base, host, file))
			if err != nil {
				return nil
			}
			return data
		}), nil
	}
}
