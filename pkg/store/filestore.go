package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/geniass/pricewatch/pkg/resolver"
)

const (
	productFile = "product.json"
	historyFile = "history.jsonl"
)

// FileStore keeps one directory per product under its root:
// <root>/<id>/product.json and an append-only <root>/<id>/history.jsonl.
type FileStore struct {
	dir   string
	mutex *sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, os.ModeDir|0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, mutex: &sync.Mutex{}}, nil
}

func (s *FileStore) AddProduct(_ context.Context, p Product) (Product, error) {
	p, err := prepare(p)
	if err != nil {
		return p, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	dir := filepath.Join(s.dir, p.ID)
	if _, err := os.Stat(filepath.Join(dir, productFile)); err == nil {
		return p, fmt.Errorf("%q: %w", p.ID, ErrProductExists)
	}
	if err := os.MkdirAll(dir, os.ModeDir|0755); err != nil {
		return p, err
	}

	f, err := os.Create(filepath.Join(dir, productFile))
	if err != nil {
		return p, err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(p); err != nil {
		return p, err
	}
	return p, nil
}

// Products walks the root for product files, sorted by ID.
func (s *FileStore) Products(_ context.Context) ([]Product, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var ps []Product
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != productFile {
			return nil
		}

		p, err := readProduct(path)
		if err != nil {
			return err
		}
		if p.Latest, err = s.latest(p.ID); err != nil {
			return err
		}
		ps = append(ps, p)
		return nil
	})
	if err != nil {
		return ps, err
	}

	sort.Slice(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
	return ps, nil
}

func (s *FileStore) Product(_ context.Context, id string) (Product, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	dir, err := s.productDir(id)
	if err != nil {
		return Product{}, err
	}
	p, err := readProduct(filepath.Join(dir, productFile))
	if errors.Is(err, fs.ErrNotExist) {
		return p, fmt.Errorf("%q: %w", id, ErrProductNotFound)
	} else if err != nil {
		return p, err
	}
	p.Latest, err = s.latest(id)
	return p, err
}

func (s *FileStore) SaveResult(_ context.Context, p Product, res resolver.Result, at time.Time) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	dir, err := s.productDir(p.ID)
	if err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(dir, productFile)); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%q: %w", p.ID, ErrProductNotFound)
	}

	f, err := os.OpenFile(filepath.Join(dir, historyFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(NewObservation(res, at))
}

func (s *FileStore) History(_ context.Context, id string) ([]Observation, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	dir, err := s.productDir(id)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(dir, productFile)); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%q: %w", id, ErrProductNotFound)
	}
	return s.history(id)
}

// productDir maps id to its directory. Only canonical IDs have one, so
// an id cannot reach outside the root.
func (s *FileStore) productDir(id string) (string, error) {
	if id == "" || id != ProductID(id) {
		return "", fmt.Errorf("%q: %w", id, ErrProductNotFound)
	}
	return filepath.Join(s.dir, id), nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) history(id string) ([]Observation, error) {
	f, err := os.Open(filepath.Join(s.dir, id, historyFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	var obs []Observation
	dec := json.NewDecoder(f)
	for {
		var o Observation
		if err := dec.Decode(&o); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return obs, fmt.Errorf("decode history of %q: %w", id, err)
		}
		obs = append(obs, o)
	}
	return obs, nil
}

func (s *FileStore) latest(id string) (*Observation, error) {
	obs, err := s.history(id)
	if err != nil || len(obs) == 0 {
		return nil, err
	}
	return &obs[len(obs)-1], nil
}

func readProduct(path string) (Product, error) {
	var p Product
	f, err := os.Open(path)
	if err != nil {
		return p, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&p); err != nil {
		return p, fmt.Errorf("decode %s: %w", path, err)
	}
	return p, nil
}
