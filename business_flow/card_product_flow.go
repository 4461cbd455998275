package businessflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/appform-bd/cardapply/app/dto"
	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/repository"
	"github.com/appform-bd/cardapply/utils"
)

// CardProductFlow serves the card catalog the cardSelection step chooses
// from. The catalog changes rarely and is read on every wizard start, so the
// list rides a cache with a short TTL.
type CardProductFlow interface {
	ListCardProducts(ctx context.Context) (*dto.CardProductListResponse, error)

	// ProductByCode returns the active product for a code, used by the draft
	// flow to cross-check the cardSelection step at save time.
	ProductByCode(ctx context.Context, code string) (*models.CardProduct, error)

	// SeedDefaultProducts inserts the launch catalog when the table is empty.
	SeedDefaultProducts(ctx context.Context) error
}

// CardProductFlowImpl implements the card catalog flow
type CardProductFlowImpl struct {
	productRepo repository.CardProductRepository
	cache       *redis.Client
	cacheTTL    time.Duration
}

// NewCardProductFlow creates a new card catalog flow
func NewCardProductFlow(productRepo repository.CardProductRepository, cache *redis.Client, cacheTTL time.Duration) CardProductFlow {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &CardProductFlowImpl{
		productRepo: productRepo,
		cache:       cache,
		cacheTTL:    cacheTTL,
	}
}

// ListCardProducts returns the active catalog, cache first. A dead cache
// degrades to a database read, never to an error.
func (s *CardProductFlowImpl) ListCardProducts(ctx context.Context) (*dto.CardProductListResponse, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, utils.CardProductCacheKey).Bytes(); err == nil {
			var cached dto.CardProductListResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	products, err := s.productRepo.ListActive(ctx)
	if err != nil {
		return nil, NewBusinessError("CARD_PRODUCTS_UNAVAILABLE", "Failed to load card products", err)
	}

	response := &dto.CardProductListResponse{
		Products: make([]dto.CardProductDTO, 0, len(products)),
	}
	for _, p := range products {
		response.Products = append(response.Products, dto.CardProductDTO{
			Code:                p.Code,
			Name:                p.Name,
			Network:             p.Network,
			Tier:                p.Tier,
			AnnualFee:           p.AnnualFee,
			InterestRateMonthly: p.InterestRateMonthly,
			CreditLimitMin:      p.CreditLimitMin,
			CreditLimitMax:      p.CreditLimitMax,
			Description:         p.Description,
		})
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			_ = s.cache.Set(ctx, utils.CardProductCacheKey, payload, s.cacheTTL).Err()
		}
	}

	return response, nil
}

// ProductByCode looks up one active product by its public code
func (s *CardProductFlowImpl) ProductByCode(ctx context.Context, code string) (*models.CardProduct, error) {
	product, err := s.productRepo.ByCode(ctx, code)
	if err != nil {
		return nil, NewBusinessError("CARD_PRODUCTS_UNAVAILABLE", "Failed to load card product", err)
	}
	if product == nil {
		return nil, NewBusinessError("CARD_PRODUCT_NOT_FOUND", "Card product not found", ErrCardProductNotFound)
	}
	if !utils.IsTrue(product.IsActive) {
		return nil, NewBusinessError("CARD_PRODUCT_INACTIVE", "Card product is no longer offered", ErrCardProductInactive)
	}
	return product, nil
}

// SeedDefaultProducts loads the launch catalog on an empty table. Codes that
// already exist are left alone, so redeploys never reset catalog edits.
func (s *CardProductFlowImpl) SeedDefaultProducts(ctx context.Context) error {
	for _, seed := range defaultCardProducts {
		existing, err := s.productRepo.ByCode(ctx, seed.Code)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		product := seed
		product.UUID = uuid.New()
		product.IsActive = utils.ToPtr(true)
		if err := s.productRepo.Save(ctx, &product); err != nil {
			return err
		}
	}

	if s.cache != nil {
		_ = s.cache.Del(ctx, utils.CardProductCacheKey).Err()
	}
	return nil
}

var defaultCardProducts = []models.CardProduct{
	{
		Code:                "VISA-CLASSIC",
		Name:                "Visa Classic Credit Card",
		Network:             models.CardNetworkVisa,
		Tier:                models.CardTierClassic,
		AnnualFee:           "1500.00",
		InterestRateMonthly: "2.08",
		CreditLimitMin:      "25000.00",
		CreditLimitMax:      "100000.00",
	},
	{
		Code:                "VISA-GOLD",
		Name:                "Visa Gold Credit Card",
		Network:             models.CardNetworkVisa,
		Tier:                models.CardTierGold,
		AnnualFee:           "3000.00",
		InterestRateMonthly: "2.08",
		CreditLimitMin:      "100000.00",
		CreditLimitMax:      "500000.00",
	},
	{
		Code:                "VISA-PLATINUM",
		Name:                "Visa Platinum Credit Card",
		Network:             models.CardNetworkVisa,
		Tier:                models.CardTierPlatinum,
		AnnualFee:           "5000.00",
		InterestRateMonthly: "1.92",
		CreditLimitMin:      "500000.00",
		CreditLimitMax:      "2000000.00",
	},
	{
		Code:                "MC-CLASSIC",
		Name:                "Mastercard Classic Credit Card",
		Network:             models.CardNetworkMastercard,
		Tier:                models.CardTierClassic,
		AnnualFee:           "1500.00",
		InterestRateMonthly: "2.08",
		CreditLimitMin:      "25000.00",
		CreditLimitMax:      "100000.00",
	},
	{
		Code:                "MC-GOLD",
		Name:                "Mastercard Gold Credit Card",
		Network:             models.CardNetworkMastercard,
		Tier:                models.CardTierGold,
		AnnualFee:           "3000.00",
		InterestRateMonthly: "2.08",
		CreditLimitMin:      "100000.00",
		CreditLimitMax:      "500000.00",
	},
	{
		Code:                "MC-PLATINUM",
		Name:                "Mastercard Platinum Credit Card",
		Network:             models.CardNetworkMastercard,
		Tier:                models.CardTierPlatinum,
		AnnualFee:           "5000.00",
		InterestRateMonthly: "1.92",
		CreditLimitMin:      "500000.00",
		CreditLimitMax:      "2000000.00",
	},
}
