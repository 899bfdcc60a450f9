package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Names of the two persisted documents.
const (
	TrainsDocument   = "trains"
	StationsDocument = "stations"
)

// Document is one named, serialized table.
type Document struct {
	Name string
	Body []byte
}

// Persister reads and writes the serialized tables. Load returns an error
// wrapping ErrDocumentNotFound when the document has never been saved.
type Persister interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, docs []Document) error
	Close() error
}

// FilePersister keeps each document in its own JSON file. Saves overwrite the
// files in place, one after the other.
type FilePersister struct {
	paths map[string]string
}

func NewFilePersister(trainsPath, stationsPath string) *FilePersister {
	return &FilePersister{
		paths: map[string]string{
			TrainsDocument:   trainsPath,
			StationsDocument: stationsPath,
		},
	}
}

func (p *FilePersister) path(name string) (string, error) {
	path, ok := p.paths[name]
	if !ok {
		return "", fmt.Errorf("unknown document %q", name)
	}
	return path, nil
}

func (p *FilePersister) Load(_ context.Context, name string) ([]byte, error) {
	path, err := p.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrDocumentNotFound)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (p *FilePersister) Save(ctx context.Context, docs []Document) error {
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return &PersistError{Document: doc.Name, Err: err}
		}

		path, err := p.path(doc.Name)
		if err != nil {
			return &PersistError{Document: doc.Name, Err: err}
		}
		if err := os.WriteFile(path, doc.Body, 0o644); err != nil {
			return &PersistError{Document: doc.Name, Err: err}
		}
	}
	return nil
}

func (p *FilePersister) Close() error {
	return nil
}
