package credits

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/card-credits/internal/lib/sl"
	"github.com/magabrotheeeer/card-credits/internal/models"
)

const (
	packagesCacheKey   = "credit_packages:all"
	packageCachePrefix = "credit_package:"
	packagesCacheTTL   = time.Hour
)

// PackageRepository — источник справочника пакетов кредитов.
type PackageRepository interface {
	GetPackage(ctx context.Context, packageID string) (*models.CreditPackage, error)
	ListPackages(ctx context.Context) ([]*models.CreditPackage, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(ctx context.Context, key string) error
}

// Catalog читает справочник пакетов через кеш. Ошибки кеша не прерывают
// чтение, а только логируются.
type Catalog struct {
	repo  PackageRepository
	cache Cache
	log   *slog.Logger
}

// NewCatalog создаёт Catalog. cache может быть nil.
func NewCatalog(repo PackageRepository, cache Cache, log *slog.Logger) *Catalog {
	return &Catalog{repo: repo, cache: cache, log: log}
}

// GetPackage возвращает пакет по идентификатору или ErrInvalidPackage.
func (c *Catalog) GetPackage(ctx context.Context, packageID string) (*models.CreditPackage, error) {
	const op = "credits.Catalog.GetPackage"

	var cached *models.CreditPackage
	cacheKey := packageCachePrefix + packageID
	if c.cache != nil {
		found, err := c.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			c.log.Warn("failed to read package from cache", slog.String("key", cacheKey), sl.Err(err))
		} else if found && cached != nil {
			return cached, nil
		}
	}

	pkg, err := c.repo.GetPackage(ctx, packageID)
	if err != nil {
		return nil, classify(op, err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, pkg, packagesCacheTTL); err != nil {
			c.log.Warn("failed to add package to cache", slog.String("key", cacheKey), sl.Err(err))
		}
	}
	return pkg, nil
}

// ListPackages возвращает все пакеты.
func (c *Catalog) ListPackages(ctx context.Context) ([]*models.CreditPackage, error) {
	const op = "credits.Catalog.ListPackages"

	var cached []*models.CreditPackage
	if c.cache != nil {
		found, err := c.cache.Get(ctx, packagesCacheKey, &cached)
		if err != nil {
			c.log.Warn("failed to read packages from cache", slog.String("key", packagesCacheKey), sl.Err(err))
		} else if found {
			return cached, nil
		}
	}

	pkgs, err := c.repo.ListPackages(ctx)
	if err != nil {
		return nil, classify(op, err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, packagesCacheKey, pkgs, packagesCacheTTL); err != nil {
			c.log.Warn("failed to add packages to cache", slog.String("key", packagesCacheKey), sl.Err(err))
		}
	}
	return pkgs, nil
}

// Refresh сбрасывает закешированный справочник, чтобы следующее чтение
// взяло пакеты из хранилища. Вызывается после применения миграций.
func (c *Catalog) Refresh(ctx context.Context) error {
	const op = "credits.Catalog.Refresh"
	if c.cache == nil {
		return nil
	}

	pkgs, err := c.repo.ListPackages(ctx)
	if err != nil {
		return classify(op, err)
	}
	keys := make([]string, 0, len(pkgs)+1)
	keys = append(keys, packagesCacheKey)
	for _, p := range pkgs {
		keys = append(keys, packageCachePrefix+p.ID)
	}
	for _, key := range keys {
		if err := c.cache.Invalidate(ctx, key); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	c.log.Info("package cache refreshed", slog.Int("packages", len(pkgs)))
	return nil
}
