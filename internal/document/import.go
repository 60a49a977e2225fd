package document

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Skotchmaster/shop_catalog/internal/models"
)

type Importer interface {
	CountProducts(ctx context.Context) (int64, error)
	ImportProducts(ctx context.Context, items []models.Product) (int, error)
}

// Decode turns document records into products. Records without an integral id
// cannot be mirrored and are reported as skipped.
func Decode(doc *Document) ([]models.Product, int, error) {
	items := make([]models.Product, 0, len(doc.Productos))
	skipped := 0
	for i, raw := range doc.Productos {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, 0, fmt.Errorf("product #%d is not an object: %w", i, err)
		}

		id, ok := Int(fields[FieldID])
		if !ok {
			skipped++
			continue
		}

		p := models.Product{
			ID:         id,
			Nombre:     String(fields[FieldNombre]),
			Imagen:     String(fields[FieldImagen]),
			Habilitado: true,
		}
		if v, ok := fields[FieldPrecio]; ok && !isNull(v) {
			price, err := Price(v)
			if err != nil {
				return nil, 0, fmt.Errorf("product %d: precio: %w", id, err)
			}
			p.Precio = price
		}
		if v, ok := fields[FieldHabilitado]; ok {
			p.Habilitado = Bool(v)
		}
		if v, ok := fields[FieldComentarios]; ok && !isNull(v) {
			var comments []json.RawMessage
			if err := json.Unmarshal(v, &comments); err != nil {
				return nil, 0, fmt.Errorf("product %d: comentarios: %w", id, err)
			}
			for _, c := range comments {
				p.Comments = append(p.Comments, models.Comment{Body: string(c)})
			}
		}

		extra := map[string]json.RawMessage{}
		for k, v := range fields {
			if !IsReserved(k) {
				extra[k] = v
			}
		}
		if len(extra) > 0 {
			merged, err := MergeExtra("", extra)
			if err != nil {
				return nil, 0, fmt.Errorf("product %d: %w", id, err)
			}
			p.Extra = merged
		}

		items = append(items, p)
	}
	return items, skipped, nil
}

type ImportResult struct {
	Imported int
	Skipped  int
}

// ImportIfEmpty seeds an empty relational store from the document on disk.
// A non-empty store is left untouched.
func ImportIfEmpty(ctx context.Context, s *Store, dst Importer) (ImportResult, error) {
	n, err := dst.CountProducts(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("count products: %w", err)
	}
	if n > 0 || !s.Exists() {
		return ImportResult{}, nil
	}

	doc, err := s.Read()
	if err != nil {
		return ImportResult{}, err
	}
	items, skipped, err := Decode(doc)
	if err != nil {
		return ImportResult{}, err
	}
	imported, err := dst.ImportProducts(ctx, items)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import products: %w", err)
	}
	return ImportResult{Imported: imported, Skipped: skipped}, nil
}
