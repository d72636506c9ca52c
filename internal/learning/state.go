package learning

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"SignalSentinel/internal/model"
)

// FileStore keeps the learning state in a JSON file. It serves as the store
// when no database is configured.
type FileStore struct {
	mu       sync.Mutex
	filePath string
}

// NewFileStore returns a store backed by filePath.
func NewFileStore(filePath string) *FileStore {
	return &FileStore{filePath: filePath}
}

// LoadState reads the learning state from a JSON file. Returns an empty state
// if the file doesn't exist.
func LoadState(filePath string) (*model.LearningState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.LearningState{}, nil
		}
		return nil, err
	}
	var state model.LearningState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState writes the learning state to a JSON file.
func SaveState(filePath string, state *model.LearningState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}

func (f *FileStore) LoadWeights() (model.WeightTable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, err := LoadState(f.filePath)
	if err != nil {
		return nil, err
	}
	return state.Weights, nil
}

func (f *FileStore) SaveWeights(w model.WeightTable) error {
	return f.update(func(s *model.LearningState) { s.Weights = w })
}

func (f *FileStore) LoadPerformance() (model.PerformanceTable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, err := LoadState(f.filePath)
	if err != nil {
		return nil, err
	}
	return state.Performance, nil
}

func (f *FileStore) SavePerformance(p model.PerformanceTable) error {
	return f.update(func(s *model.LearningState) { s.Performance = p })
}

func (f *FileStore) update(fn func(*model.LearningState)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, err := LoadState(f.filePath)
	if err != nil {
		return err
	}
	fn(state)
	return SaveState(f.filePath, state)
}
