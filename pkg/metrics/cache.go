package metrics

import (
	"io"
	"os"

	"github.com/vmihailenco/msgpack"
)

// SaveLabelCache persists the currently-published label sets to path, so a
// restarted exporter can still clean up series it no longer emits (spec
// §4.K "cleanup contract against stale labels"). Each label set is written
// as a map length followed by its name/value pairs, mirroring the
// teacher's explicit field-by-field msgpack Encoder usage.
func SaveLabelCache(path string, published []labelSet) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := msgpack.NewEncoder(f).UseCompactEncoding(true)
	if err := enc.EncodeArrayLen(len(published)); err != nil {
		return err
	}
	for _, labels := range published {
		if err := enc.EncodeMapLen(len(labels)); err != nil {
			return err
		}
		for name, value := range labels {
			if err := enc.EncodeString(name); err != nil {
				return err
			}
			if err := enc.EncodeString(value); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadLabelCache reads back a label cache written by SaveLabelCache. A
// missing file is not an error: it returns an empty cache, since there is
// nothing stale to clean up on a cold start.
func LoadLabelCache(path string) ([]labelSet, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	dec := msgpack.NewDecoder(f)
	n, err := dec.DecodeArrayLen()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}

	out := make([]labelSet, 0, n)
	for i := 0; i < n; i++ {
		fieldCount, err := dec.DecodeMapLen()
		if err != nil {
			return nil, err
		}
		labels := make(labelSet, fieldCount)
		for j := 0; j < fieldCount; j++ {
			name, err := dec.DecodeString()
			if err != nil {
				return nil, err
			}
			value, err := dec.DecodeString()
			if err != nil {
				return nil, err
			}
			labels[name] = value
		}
		out = append(out, labels)
	}
	return out, nil
}
