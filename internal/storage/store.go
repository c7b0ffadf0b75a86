package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/gptwalk/internal/walkthrough"
)

// ErrNoSessions is returned by Latest when nothing has been saved yet.
var ErrNoSessions = errors.New("storage: no saved sessions")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type SessionMetadata struct {
	ID          string                    `json:"id"`
	Mode        string                    `json:"mode"`
	Timestamp   time.Time                 `json:"timestamp"`
	Duration    time.Duration             `json:"duration"`
	Theme       string                    `json:"theme,omitempty"`
	Final       walkthrough.PlaybackState `json:"final"`
	Transitions int                       `json:"transitions"`
}

// Save writes a recorded session as metadata.json plus transitions.csv and
// returns its id.
func (s *Store) Save(mode, theme string, rec *Recorder) (string, error) {
	started := rec.Started()
	id := fmt.Sprintf("%s_%d", mode, started.UnixMilli())
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	transitions := rec.Transitions()
	meta := SessionMetadata{
		ID:          id,
		Mode:        mode,
		Timestamp:   started,
		Duration:    rec.Elapsed(),
		Theme:       theme,
		Final:       rec.Final(),
		Transitions: len(transitions),
	}

	metaFile, err := os.Create(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(dir, "transitions.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write([]string{"at_ms", "step", "playing", "phase"}); err != nil {
		return "", err
	}
	for _, t := range transitions {
		row := []string{
			strconv.FormatInt(t.At.Milliseconds(), 10),
			strconv.Itoa(t.State.ActiveStep),
			strconv.FormatBool(t.State.IsPlaying),
			strconv.Itoa(t.State.AttentionPhase),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return id, w.Error()
}

// List returns every readable session, oldest first.
func (s *Store) List() ([]SessionMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SessionMetadata{}, nil
		}
		return nil, err
	}

	sessions := make([]SessionMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		sessions = append(sessions, *meta)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Timestamp.Before(sessions[j].Timestamp)
	})
	return sessions, nil
}

func (s *Store) Load(id string) (*SessionMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta SessionMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Latest returns the most recent session.
func (s *Store) Latest() (*SessionMetadata, error) {
	sessions, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, ErrNoSessions
	}
	return &sessions[len(sessions)-1], nil
}

func (s *Store) LoadTransitions(id string) ([]Transition, error) {
	file, err := os.Open(filepath.Join(s.baseDir, id, "transitions.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Transition{}, nil
	}

	out := make([]Transition, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != 4 {
			continue
		}
		ms, err1 := strconv.ParseInt(rec[0], 10, 64)
		step, err2 := strconv.Atoi(rec[1])
		playing, err3 := strconv.ParseBool(rec[2])
		phase, err4 := strconv.Atoi(rec[3])
		if err := errors.Join(err1, err2, err3, err4); err != nil {
			continue
		}
		out = append(out, Transition{
			At:    time.Duration(ms) * time.Millisecond,
			State: walkthrough.PlaybackState{ActiveStep: step, IsPlaying: playing, AttentionPhase: phase},
		})
	}
	return out, nil
}
