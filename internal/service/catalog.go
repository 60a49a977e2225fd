package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_catalog/internal/document"
	"github.com/Skotchmaster/shop_catalog/internal/models"
	"github.com/Skotchmaster/shop_catalog/internal/search"
	"github.com/Skotchmaster/shop_catalog/pkg/logging"
)

type ProductRepo interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id int) (*models.Product, error)
	CreateProduct(ctx context.Context, prod *models.Product) error
	UpdateProduct(ctx context.Context, id int, apply func(*models.Product) error) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int) error
}

type DocumentStore interface {
	Products() ([]json.RawMessage, error)
	Rebuild(ctx context.Context, src document.Source) error
}

type ImageStore interface {
	Save(fh *multipart.FileHeader) (string, error)
}

type CatalogService struct {
	Repo     ProductRepo
	Document DocumentStore
	Images   ImageStore
	Events   EventPublisher
	Index    search.Indexer
}

type CreateInput struct {
	Name  string
	Price string
	Image *multipart.FileHeader
}

func (s *CatalogService) projections() projections {
	return projections{Events: s.Events, Search: s.Index}
}

func notFound(err error, id int) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	return err
}

func (s *CatalogService) rebuild(ctx context.Context) error {
	if err := s.Document.Rebuild(ctx, s.Repo); err != nil {
		logging.FromContext(ctx).Error("document_rebuild_failed", "error", err)
		return fmt.Errorf("rebuild document: %w", err)
	}
	return nil
}

// List returns the document's products exactly as stored.
func (s *CatalogService) List(ctx context.Context) ([]json.RawMessage, error) {
	return s.Document.Products()
}

func parsePrice(raw string) (float64, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, newError(ErrValidation, MsgInvalidPrice)
	}
	return n, nil
}

func (s *CatalogService) Create(ctx context.Context, in CreateInput) (map[string]any, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create")

	if in.Name == "" || in.Price == "" || in.Image == nil || in.Image.Filename == "" {
		return nil, newError(ErrValidation, MsgMissingProduct)
	}
	price, err := parsePrice(in.Price)
	if err != nil {
		return nil, err
	}

	ref, err := s.Images.Save(in.Image)
	if err != nil {
		l.Error("create_product_failed", "reason", "cannot save image", "error", err)
		return nil, err
	}

	prod := models.Product{Nombre: in.Name, Precio: price, Imagen: ref, Habilitado: true}
	if err := s.Repo.CreateProduct(ctx, &prod); err != nil {
		l.Error("create_product_failed", "reason", "cannot insert product", "error", err)
		return nil, err
	}
	if err := s.rebuild(ctx); err != nil {
		return nil, err
	}

	rec, err := document.Record(prod)
	if err != nil {
		return nil, err
	}
	s.projections().publish(ctx, EventProductCreated, prod.ID, map[string]any{"producto": rec})
	s.projections().index(ctx, prod.ID, rec)

	l.Info("create_product_success", "product_id", prod.ID)
	return rec, nil
}

func applyFields(p *models.Product, fields map[string]json.RawMessage) error {
	extra := map[string]json.RawMessage{}
	for k, v := range fields {
		switch k {
		case document.FieldID, document.FieldComentarios:
		case document.FieldNombre:
			p.Nombre = document.String(v)
		case document.FieldImagen:
			p.Imagen = document.String(v)
		case document.FieldHabilitado:
			p.Habilitado = document.Bool(v)
		case document.FieldPrecio:
			n, err := document.Price(v)
			if err != nil {
				return newError(ErrValidation, MsgInvalidPrice)
			}
			p.Precio = n
		default:
			extra[k] = v
		}
	}
	if len(extra) == 0 {
		return nil
	}
	merged, err := document.MergeExtra(p.Extra, extra)
	if err != nil {
		return err
	}
	p.Extra = merged
	return nil
}

// Update shallow-merges fields into the product. Keys outside the known
// columns are kept as extra attributes of the record.
func (s *CatalogService) Update(ctx context.Context, id int, fields map[string]json.RawMessage) (map[string]any, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.update", "product_id", id)

	if _, err := s.Repo.UpdateProduct(ctx, id, func(p *models.Product) error {
		return applyFields(p, fields)
	}); err != nil {
		if !errors.Is(err, ErrValidation) {
			l.Warn("update_product_failed", "error", err)
		}
		return nil, notFound(err, id)
	}
	if err := s.rebuild(ctx); err != nil {
		return nil, err
	}

	prod, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, id)
	}
	rec, err := document.Record(*prod)
	if err != nil {
		return nil, err
	}
	s.projections().publish(ctx, EventProductUpdated, id, map[string]any{"producto": rec})
	s.projections().index(ctx, id, rec)

	l.Info("update_product_success")
	return rec, nil
}

func (s *CatalogService) Delete(ctx context.Context, id int) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete", "product_id", id)

	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		l.Warn("delete_product_failed", "error", err)
		return notFound(err, id)
	}
	if err := s.rebuild(ctx); err != nil {
		return err
	}
	s.projections().publish(ctx, EventProductDeleted, id, nil)
	s.projections().unindex(ctx, id)

	l.Info("delete_product_success")
	return nil
}

// ToggleEnabled flips habilitado and returns the new state label.
func (s *CatalogService) ToggleEnabled(ctx context.Context, id int) (string, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.toggle", "product_id", id)

	prod, err := s.Repo.UpdateProduct(ctx, id, func(p *models.Product) error {
		p.Habilitado = !p.Habilitado
		return nil
	})
	if err != nil {
		l.Warn("toggle_product_failed", "error", err)
		return "", notFound(err, id)
	}
	if err := s.rebuild(ctx); err != nil {
		return "", err
	}

	label := "deshabilitado"
	if prod.Habilitado {
		label = "habilitado"
	}
	s.projections().publish(ctx, EventProductToggled, id, map[string]any{"habilitado": prod.Habilitado})
	if full, err := s.Repo.GetProduct(ctx, id); err == nil {
		if rec, err := document.Record(*full); err == nil {
			s.projections().index(ctx, id, rec)
		}
	}

	l.Info("toggle_product_success", "habilitado", prod.Habilitado)
	return label, nil
}

func (s *CatalogService) Search(ctx context.Context, q string, page, size int) (search.Result, error) {
	if s.Index == nil {
		return search.Result{}, newError(ErrSearchDisabled, MsgSearchUnavailable)
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return search.Result{}, newError(ErrValidation, MsgEmptyQuery)
	}

	from, limit := search.Calculate(page, size)
	res, err := s.Index.Search(ctx, q, from, limit)
	if err != nil {
		logging.FromContext(ctx).With("svc", "catalog.search").Error("search_failed", "query", q, "error", err)
		return search.Result{}, err
	}
	return res, nil
}
