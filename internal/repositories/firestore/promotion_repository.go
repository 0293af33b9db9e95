package firestore

import (
	"context"
	"errors"
	"time"

	fs "cloud.google.com/go/firestore"

	domain "github.com/motorunner/api/internal/domain"
	platform "github.com/motorunner/api/internal/platform/firestore"
	"github.com/motorunner/api/internal/repositories"
)

type promotionDoc struct {
	Code        string    `firestore:"code"`
	Type        string    `firestore:"type"`
	Discount    int64     `firestore:"discount"`
	Description string    `firestore:"description"`
	Active      bool      `firestore:"active"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func toPromotionDoc(promotion domain.Promotion) promotionDoc {
	return promotionDoc{
		Code:        promotion.Code,
		Type:        string(promotion.Type),
		Discount:    promotion.Discount,
		Description: promotion.Description,
		Active:      promotion.Active,
		CreatedAt:   promotion.CreatedAt,
		UpdatedAt:   promotion.UpdatedAt,
	}
}

func (d promotionDoc) toDomain(id string) domain.Promotion {
	return domain.Promotion{
		ID:          id,
		Code:        d.Code,
		Type:        domain.PromoType(d.Type),
		Discount:    d.Discount,
		Description: d.Description,
		Active:      d.Active,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// PromotionRepository maintains promotion definitions.
type PromotionRepository struct {
	base *platform.BaseRepository[promotionDoc]
}

func newPromotionRepository(provider *platform.Provider) *PromotionRepository {
	return &PromotionRepository{
		base: platform.NewBaseRepository[promotionDoc](provider, collectionPromotions),
	}
}

func (r *PromotionRepository) Insert(ctx context.Context, promotion domain.Promotion) error {
	_, err := r.base.Create(ctx, promotion.ID, toPromotionDoc(promotion))
	return err
}

func (r *PromotionRepository) Update(ctx context.Context, promotion domain.Promotion) error {
	_, err := r.base.Set(ctx, promotion.ID, toPromotionDoc(promotion))
	return err
}

func (r *PromotionRepository) FindByID(ctx context.Context, promotionID string) (domain.Promotion, error) {
	doc, err := r.base.Get(ctx, promotionID)
	if err != nil {
		return domain.Promotion{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

func (r *PromotionRepository) FindByCode(ctx context.Context, code string) (domain.Promotion, error) {
	docs, err := r.base.Query(ctx, func(query fs.Query) fs.Query {
		return query.Where("code", "==", code).Limit(1)
	})
	if err != nil {
		return domain.Promotion{}, err
	}
	if len(docs) == 0 {
		return domain.Promotion{}, platform.NotFoundError("promotions.findbycode", errors.New("promotion "+code+" not found"))
	}
	return docs[0].Data.toDomain(docs[0].ID), nil
}

func (r *PromotionRepository) List(ctx context.Context, filter repositories.PromotionListFilter) ([]domain.Promotion, error) {
	docs, err := r.base.Query(ctx, func(query fs.Query) fs.Query {
		if filter.ActiveOnly {
			query = query.Where("active", "==", true)
		}
		query = query.OrderBy("createdAt", fs.Desc)
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
		return query
	})
	if err != nil {
		return nil, err
	}

	promotions := make([]domain.Promotion, 0, len(docs))
	for _, doc := range docs {
		promotions = append(promotions, doc.Data.toDomain(doc.ID))
	}
	return promotions, nil
}
