package service

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/Skotchmaster/shop_catalog/internal/document"
	"github.com/Skotchmaster/shop_catalog/internal/models"
	"github.com/Skotchmaster/shop_catalog/internal/search"
	"github.com/Skotchmaster/shop_catalog/pkg/logging"
)

type CommentRepo interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id int) (*models.Product, error)
	ListComments(ctx context.Context, productID int) ([]models.Comment, error)
	AddComment(ctx context.Context, productID int, body string) (*models.Comment, error)
}

type CommentService struct {
	Repo     CommentRepo
	Document DocumentStore
	Events   EventPublisher
	Index    search.Indexer
}

func (s *CommentService) List(ctx context.Context, productID int) ([]json.RawMessage, error) {
	items, err := s.Repo.ListComments(ctx, productID)
	if err != nil {
		return nil, notFound(err, productID)
	}
	out := make([]json.RawMessage, 0, len(items))
	for _, c := range items {
		out = append(out, json.RawMessage(c.Body))
	}
	return out, nil
}

// normalizeComment maps an empty or null body to {} and compacts anything else.
func normalizeComment(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(trimmed) {
		return nil, newError(ErrValidation, MsgInvalidComment)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, newError(ErrValidation, MsgInvalidComment)
	}
	return buf.Bytes(), nil
}

// Add appends a comment to an existing product. A missing product is never created.
func (s *CommentService) Add(ctx context.Context, productID int, body []byte) (json.RawMessage, error) {
	l := logging.FromContext(ctx).With("svc", "comment.add", "product_id", productID)

	comment, err := normalizeComment(body)
	if err != nil {
		return nil, err
	}

	if _, err := s.Repo.AddComment(ctx, productID, string(comment)); err != nil {
		l.Warn("add_comment_failed", "error", err)
		return nil, notFound(err, productID)
	}
	if err := s.Document.Rebuild(ctx, s.Repo); err != nil {
		l.Error("document_rebuild_failed", "error", err)
		return nil, err
	}

	p := projections{Events: s.Events, Search: s.Index}
	p.publish(ctx, EventCommentAdded, productID, map[string]any{"comentario": comment})
	if prod, err := s.Repo.GetProduct(ctx, productID); err == nil {
		if rec, err := document.Record(*prod); err == nil {
			p.index(ctx, productID, rec)
		}
	}

	l.Info("add_comment_success")
	return comment, nil
}
