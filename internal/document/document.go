package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/Skotchmaster/shop_catalog/internal/models"
)

// Field names of a product record in the document.
const (
	FieldID          = "id"
	FieldNombre      = "nombre"
	FieldPrecio      = "precio"
	FieldImagen      = "imagen"
	FieldHabilitado  = "habilitado"
	FieldComentarios = "comentarios"
)

func IsReserved(key string) bool {
	switch key {
	case FieldID, FieldNombre, FieldPrecio, FieldImagen, FieldHabilitado, FieldComentarios:
		return true
	}
	return false
}

type Document struct {
	Productos []json.RawMessage `json:"productos"`
}

type Source interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
}

// Store owns the JSON document on disk. The document is a read model: it is
// only ever produced from the relational store, never edited in place.
type Store struct {
	Path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Read returns an empty document when the file does not exist yet.
func (s *Store) Read() (*Document, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Document{Productos: []json.RawMessage{}}, nil
		}
		return nil, fmt.Errorf("read document: %w", err)
	}
	doc := &Document{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
	}
	if doc.Productos == nil {
		doc.Productos = []json.RawMessage{}
	}
	return doc, nil
}

func (s *Store) Exists() bool {
	_, err := os.Stat(s.Path)
	return err == nil
}

func (s *Store) Products() ([]json.RawMessage, error) {
	doc, err := s.Read()
	if err != nil {
		return nil, err
	}
	return doc.Productos, nil
}

// Rebuild regenerates the document from src. The lock spans both the read and
// the write so a slower rebuild can never overwrite a newer one.
func (s *Store) Rebuild(ctx context.Context, src Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := src.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	doc, err := Build(items)
	if err != nil {
		return err
	}
	return s.write(doc)
}

func (s *Store) write(doc *Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp document: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}

// Record renders a product the way it appears in the document.
func Record(p models.Product) (map[string]any, error) {
	rec := map[string]any{}
	if p.Extra != "" {
		var extra map[string]json.RawMessage
		if err := json.Unmarshal([]byte(p.Extra), &extra); err != nil {
			return nil, fmt.Errorf("decode extra fields of product %d: %w", p.ID, err)
		}
		for k, v := range extra {
			rec[k] = v
		}
	}
	rec[FieldID] = p.ID
	rec[FieldNombre] = p.Nombre
	rec[FieldPrecio] = p.Precio
	rec[FieldImagen] = p.Imagen
	rec[FieldHabilitado] = p.Habilitado
	if len(p.Comments) > 0 {
		comments := make([]json.RawMessage, 0, len(p.Comments))
		for _, c := range p.Comments {
			comments = append(comments, json.RawMessage(c.Body))
		}
		rec[FieldComentarios] = comments
	}
	return rec, nil
}

func Build(items []models.Product) (*Document, error) {
	doc := &Document{Productos: make([]json.RawMessage, 0, len(items))}
	for _, p := range items {
		rec, err := Record(p)
		if err != nil {
			return nil, err
		}
		raw, err := marshalNoEscape(rec)
		if err != nil {
			return nil, err
		}
		doc.Productos = append(doc.Productos, raw)
	}
	return doc, nil
}

// Encode writes the document with 4-space indentation and without escaping
// non-ASCII or HTML characters.
func Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
