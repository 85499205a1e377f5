package program

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load reads a program model written by a front end. YAML and JSON are both
// accepted since JSON is a subset of YAML.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "Open")
	}
	defer f.Close()
	prog, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	if prog.Name == "" {
		prog.Name = path
	}
	return prog, nil
}

func Decode(r io.Reader) (*Program, error) {
	var prog Program
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&prog); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty model")
		}
		return nil, errors.Wrap(err, "Decode")
	}
	return &prog, nil
}

// Encode writes the model in the format Load reads.
func Encode(w io.Writer, prog *Program) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(prog); err != nil {
		return errors.Wrap(err, "Encode")
	}
	return encoder.Close()
}
