package scanner

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"sealscan/internal/program"
	"sealscan/internal/util"
)

// Loader collects the program models to analyze.
type Loader struct {
	programs []*program.Program
}

func NewLoader() *Loader {
	loader := &Loader{}
	return loader
}

func (ml *Loader) GetPrograms() []*program.Program {
	return ml.programs
}

func (ml *Loader) AddProgram(prog *program.Program) {
	ml.programs = append(ml.programs, prog)
}

// LoadFromModels loads every model file named by paths; a directory stands
// for the model files directly inside it.
func (ml *Loader) LoadFromModels(paths []string) error {
	for _, path := range paths {
		files, err := util.ModelFiles(path)
		if err != nil {
			return errors.Wrapf(err, "ModelFiles")
		}
		for _, file := range files {
			prog, err := program.Load(file)
			if err != nil {
				return err
			}
			log.Infof("loaded %s: %d types, %d functions", prog.Name, len(prog.Types), len(prog.Functions))
			ml.programs = append(ml.programs, prog)
		}
	}
	return nil
}
