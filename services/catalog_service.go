package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"miniapp-shop-api/apperr"
	"miniapp-shop-api/models"
	"miniapp-shop-api/repository"
)

type CatalogService struct {
	store *repository.Store
	scope ShopScope
	log   *zap.Logger
}

func NewCatalogService(store *repository.Store, scope ShopScope, log *zap.Logger) *CatalogService {
	return &CatalogService{store: store, scope: scope, log: log.Named("catalog")}
}

// ---- shops ----

type ShopInput struct {
	Name        Optional[string]
	Description Optional[string]
	ImageURL    Optional[string]
	Status      Optional[models.ShopStatus]
}

func (s *CatalogService) ListShops(ctx context.Context) ([]models.Shop, error) {
	shops, err := s.store.Shops.List(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list shops", err)
	}
	return shops, nil
}

func (s *CatalogService) CreateShop(ctx context.Context, actor *models.User, in ShopInput) (*models.Shop, error) {
	name := trimmed(in.Name.Value)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	shop := &models.Shop{
		Name:        name,
		Description: blankToNil(in.Description.Value),
		ImageURL:    blankToNil(in.ImageURL.Value),
		Status:      models.ShopActive,
	}
	if in.Status.Value != nil {
		shop.Status = *in.Status.Value
	}
	if !shop.Status.Valid() {
		return nil, apperr.Validation("invalid shop status %q", shop.Status)
	}
	// An ADMIN manages the shops they open.
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Shops.Create(ctx, shop); err != nil {
			return err
		}
		if actor.Role != models.RoleAdmin {
			return nil
		}
		return tx.Users.AddAdminShop(ctx, actor.ID, shop.ID)
	})
	if err != nil {
		return nil, apperr.Internal("failed to create shop", err)
	}
	s.log.Info("shop created", zap.Uint("shop_id", shop.ID), zap.Uint("actor_id", actor.ID))
	return shop, nil
}

// UpdateShop applies only the fields present in the request.
func (s *CatalogService) UpdateShop(ctx context.Context, actor *models.User, id uint, in ShopInput) (*models.Shop, error) {
	if err := s.scope.CanManage(actor, &id); err != nil {
		return nil, err
	}
	shop, err := s.store.Shops.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to load shop", err)
	}
	if shop == nil {
		return nil, apperr.NotFound("shop #%d not found", id)
	}

	if in.Name.Set {
		name := trimmed(in.Name.Value)
		if name == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		shop.Name = name
	}
	shop.Description = in.Description.Or(shop.Description)
	shop.ImageURL = in.ImageURL.Or(shop.ImageURL)
	if in.Status.Set && in.Status.Value != nil {
		if !in.Status.Value.Valid() {
			return nil, apperr.Validation("invalid shop status %q", *in.Status.Value)
		}
		shop.Status = *in.Status.Value
	}

	if err := s.store.Shops.Save(ctx, shop); err != nil {
		return nil, apperr.Internal("failed to update shop", err)
	}
	return shop, nil
}

// DeleteShop refuses while products or categories still reference the shop.
func (s *CatalogService) DeleteShop(ctx context.Context, actor *models.User, id uint) error {
	if err := s.scope.CanManage(actor, &id); err != nil {
		return err
	}
	products, err := s.store.Products.CountByShop(ctx, id)
	if err != nil {
		return apperr.Internal("failed to count products", err)
	}
	categories, err := s.store.Categories.CountByShop(ctx, id)
	if err != nil {
		return apperr.Internal("failed to count categories", err)
	}
	if products > 0 || categories > 0 {
		return apperr.Conflict("cannot delete: shop has %d product(s) and %d categories", products, categories).
			WithDetails(map[string]int64{"products": products, "categories": categories})
	}
	if err := s.store.Shops.Delete(ctx, id); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return apperr.NotFound("shop #%d not found", id)
		}
		return apperr.Internal("failed to delete shop", err)
	}
	s.log.Info("shop deleted", zap.Uint("shop_id", id), zap.Uint("actor_id", actor.ID))
	return nil
}

// ---- categories ----

type CategoryInput struct {
	Name     Optional[string]
	ImageURL Optional[string]
	ShopID   Optional[uint]
	ParentID Optional[uint]
}

func (s *CatalogService) ListCategories(ctx context.Context, filter repository.CategoryFilter) ([]models.Category, error) {
	categories, err := s.store.Categories.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal("failed to list categories", err)
	}
	return categories, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, actor *models.User, in CategoryInput) (*models.Category, error) {
	name := trimmed(in.Name.Value)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	shopID, err := s.scope.Resolve(actor, in.ShopID.Value)
	if err != nil {
		return nil, err
	}
	if err := s.checkShop(ctx, shopID); err != nil {
		return nil, err
	}
	if in.ParentID.Value != nil {
		if err := s.checkParent(ctx, 0, *in.ParentID.Value); err != nil {
			return nil, err
		}
	}

	category := &models.Category{
		Name:     name,
		ImageURL: blankToNil(in.ImageURL.Value),
		ShopID:   shopID,
		ParentID: in.ParentID.Value,
	}
	if err := s.store.Categories.Create(ctx, category); err != nil {
		return nil, apperr.Internal("failed to create category", err)
	}
	return category, nil
}

// UpdateCategory requires a name; other absent fields keep their value.
func (s *CatalogService) UpdateCategory(ctx context.Context, actor *models.User, id uint, in CategoryInput) (*models.Category, error) {
	name := trimmed(in.Name.Value)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	category, err := s.store.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to load category", err)
	}
	if category == nil {
		return nil, apperr.NotFound("category #%d not found", id)
	}
	if err := s.scope.CanManage(actor, category.ShopID); err != nil {
		return nil, err
	}

	if in.ShopID.Set {
		shopID, err := s.scope.Resolve(actor, in.ShopID.Value)
		if err != nil {
			return nil, err
		}
		if err := s.checkShop(ctx, shopID); err != nil {
			return nil, err
		}
		category.ShopID = shopID
	}
	if in.ParentID.Set {
		if in.ParentID.Value != nil {
			if err := s.checkParent(ctx, id, *in.ParentID.Value); err != nil {
				return nil, err
			}
		}
		category.ParentID = in.ParentID.Value
	}
	category.Name = name
	category.ImageURL = in.ImageURL.Or(category.ImageURL)

	if err := s.store.Categories.Save(ctx, category); err != nil {
		return nil, apperr.Internal("failed to update category", err)
	}
	return category, nil
}

// DeleteCategory is shallow: products and sub-categories block it.
func (s *CatalogService) DeleteCategory(ctx context.Context, actor *models.User, id uint) error {
	category, err := s.store.Categories.GetByID(ctx, id)
	if err != nil {
		return apperr.Internal("failed to load category", err)
	}
	if category == nil {
		return apperr.NotFound("category #%d not found", id)
	}
	if err := s.scope.CanManage(actor, category.ShopID); err != nil {
		return err
	}

	products, err := s.store.Products.CountByCategory(ctx, id)
	if err != nil {
		return apperr.Internal("failed to count products", err)
	}
	if products > 0 {
		return apperr.Conflict("cannot delete: category has %d product(s)", products).
			WithDetails(map[string]int64{"products": products})
	}
	children, err := s.store.Categories.CountChildren(ctx, id)
	if err != nil {
		return apperr.Internal("failed to count sub-categories", err)
	}
	if children > 0 {
		return apperr.Conflict("cannot delete: category has %d sub-categories", children).
			WithDetails(map[string]int64{"children": children})
	}

	if err := s.store.Categories.Delete(ctx, id); err != nil {
		return apperr.Internal("failed to delete category", err)
	}
	return nil
}

// checkParent rejects a missing parent and any parent inside the subtree of
// id (id 0 means a new category).
func (s *CatalogService) checkParent(ctx context.Context, id, parentID uint) error {
	if id != 0 && parentID == id {
		return apperr.Validation("a category cannot be its own parent")
	}
	visited := map[uint]bool{}
	cur := &parentID
	for cur != nil {
		if id != 0 && *cur == id {
			return apperr.Validation("category #%d cannot be moved under its own descendant", id)
		}
		if visited[*cur] {
			return apperr.Validation("category tree already contains a cycle at #%d", *cur)
		}
		visited[*cur] = true

		node, err := s.store.Categories.GetByID(ctx, *cur)
		if err != nil {
			return apperr.Internal("failed to load category", err)
		}
		if node == nil {
			if *cur == parentID {
				return apperr.Validation("parent category #%d not found", parentID)
			}
			return nil
		}
		cur = node.ParentID
	}
	return nil
}

func (s *CatalogService) checkShop(ctx context.Context, shopID *uint) error {
	if shopID == nil {
		return nil
	}
	shop, err := s.store.Shops.GetByID(ctx, *shopID)
	if err != nil {
		return apperr.Internal("failed to load shop", err)
	}
	if shop == nil {
		return apperr.Validation("shop #%d not found", *shopID)
	}
	return nil
}

// ---- products ----

type ProductInput struct {
	Title       string
	Description string
	Price       decimal.Decimal
	// Stock is nil when not sent; updates then keep the current stock.
	Stock      *int
	ImageURLs  *string
	CategoryID *uint
	ShopID     *uint
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return apperr.Validation("title and price are required")
	}
	if !in.Price.IsPositive() {
		return apperr.Validation("price must be greater than zero")
	}
	if in.Stock != nil && *in.Stock < 0 {
		return apperr.Validation("stock cannot be negative")
	}
	return nil
}

func (s *CatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, error) {
	products, err := s.store.Products.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal("failed to list products", err)
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.store.Products.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to load product", err)
	}
	if product == nil {
		return nil, apperr.NotFound("product #%d not found", id)
	}
	return product, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, actor *models.User, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	shopID, err := s.scope.Resolve(actor, in.ShopID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, actor, shopID, in.CategoryID); err != nil {
		return nil, err
	}

	product := &models.Product{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Price:       in.Price,
		ImageURLs:   blankToNil(in.ImageURLs),
		CategoryID:  in.CategoryID,
		ShopID:      shopID,
	}
	if in.Stock != nil {
		product.Stock = *in.Stock
	}
	if err := s.store.Products.Create(ctx, product); err != nil {
		return nil, apperr.Internal("failed to create product", err)
	}
	s.log.Info("product created", zap.Uint("product_id", product.ID), zap.Uint("actor_id", actor.ID))
	return s.GetProduct(ctx, product.ID)
}

// UpdateProduct replaces the product's fields, keeping stock when the
// request omits it.
func (s *CatalogService) UpdateProduct(ctx context.Context, actor *models.User, id uint, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.scope.CanManage(actor, product.ShopID); err != nil {
		return nil, err
	}
	shopID, err := s.scope.Resolve(actor, in.ShopID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, actor, shopID, in.CategoryID); err != nil {
		return nil, err
	}

	product.Title = strings.TrimSpace(in.Title)
	product.Description = in.Description
	product.Price = in.Price
	product.ImageURLs = blankToNil(in.ImageURLs)
	product.CategoryID = in.CategoryID
	product.ShopID = shopID
	if in.Stock != nil {
		product.Stock = *in.Stock
	}
	if err := s.store.Products.Update(ctx, product, in.Stock != nil); err != nil {
		return nil, apperr.Internal("failed to update product", err)
	}
	return s.GetProduct(ctx, id)
}

// DeleteProduct refuses products that appear in past orders.
func (s *CatalogService) DeleteProduct(ctx context.Context, actor *models.User, id uint) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.scope.CanManage(actor, product.ShopID); err != nil {
		return err
	}
	n, err := s.store.Orders.CountItemsByProduct(ctx, id)
	if err != nil {
		return apperr.Internal("failed to count order items", err)
	}
	if n > 0 {
		return apperr.Conflict("cannot delete: product appears in %d order item(s)", n).
			WithDetails(map[string]int64{"orderItems": n})
	}
	if err := s.store.Products.Delete(ctx, id); err != nil {
		return apperr.Internal("failed to delete product", err)
	}
	return nil
}

// checkRefs verifies the shop and category exist and that the category
// lives in the same shop as the product.
func (s *CatalogService) checkRefs(ctx context.Context, actor *models.User, shopID, categoryID *uint) error {
	if err := s.checkShop(ctx, shopID); err != nil {
		return err
	}
	if categoryID == nil {
		return nil
	}
	category, err := s.store.Categories.GetByID(ctx, *categoryID)
	if err != nil {
		return apperr.Internal("failed to load category", err)
	}
	if category == nil {
		return apperr.Validation("category #%d not found", *categoryID)
	}
	if category.ShopID != nil && shopID != nil && *category.ShopID != *shopID {
		if err := s.scope.CanReference(actor, *category.ShopID); err != nil {
			return err
		}
		return apperr.Validation("category #%d belongs to shop #%d, not shop #%d", category.ID, *category.ShopID, *shopID)
	}
	return nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func blankToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
