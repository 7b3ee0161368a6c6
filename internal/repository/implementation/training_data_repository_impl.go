package implementation

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/repository/contract"
)

// trainingDataRepository appends feedback records to JSONL files on local
// disk, one line per record. The offline data pipeline consumes the files;
// this side only ever appends.
type trainingDataRepository struct {
	mu      sync.Mutex
	dataDir string
	sftFile string
	dpoFile string
}

func NewTrainingDataRepository(dataDir, sftFile, dpoFile string) contract.TrainingDataRepository {
	return &trainingDataRepository{
		dataDir: dataDir,
		sftFile: sftFile,
		dpoFile: dpoFile,
	}
}

func (r *trainingDataRepository) AppendSFT(_ context.Context, record *entity.TrainingRecord) error {
	return r.append(r.sftFile, record)
}

func (r *trainingDataRepository) AppendDPO(_ context.Context, record *entity.TrainingRecord) error {
	return r.append(r.dpoFile, record)
}

func (r *trainingDataRepository) append(filename string, record *entity.TrainingRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.dataDir, 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(r.dataDir, filename), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}

	return nil
}
