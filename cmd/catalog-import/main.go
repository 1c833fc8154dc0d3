// Command catalog-import is a minimal wiring entry point demonstrating
// end-to-end composition of this module's ports: settings, the
// relational store and the file-backed inventory. It is not the
// interactive catalog-management flow (out of scope); it exists only
// to reconcile the on-disk product/shop shards against the store the
// way a scheduled import job would, mirroring the wiring shape of the
// teacher's cmd/seeder/main.go (flag parsing, logger.Setup, then a
// small helper struct carrying the steps).
package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/rechu/catalog/internal/database"
	"github.com/rechu/catalog/internal/inventory"
	"github.com/rechu/catalog/internal/settings"
	"github.com/rechu/catalog/internal/store"
	"github.com/rechu/catalog/pkg/logger"
)

func main() {
	var (
		logLevel = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		onlyNew  = flag.Bool("only-new", false, "Only add new entries, never merge onto existing ones")
		dryRun   = flag.Bool("dry-run", false, "Reconcile in memory but do not write shards or commit the store")
	)
	flag.Parse()

	// A missing .env is normal outside local development, same as the
	// teacher's cmd/enrich-flyers and cmd/archive-flyers entry points.
	_ = godotenv.Load()

	if err := logger.Setup(logger.Config{Level: *logLevel, Format: "console", Output: "stdout"}); err != nil {
		os.Exit(1)
	}

	cfg, err := settings.Instance().Data()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve data settings")
	}
	dsn, err := settings.Instance().DatabaseURI()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve database uri")
	}

	bunDB, err := database.NewBunFromURI(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer bunDB.Close()

	st := store.New(bunDB)
	defer st.Close()

	importer := &Importer{store: st, cfg: cfg, onlyNew: *onlyNew, dryRun: *dryRun}

	ctx := context.Background()
	if err := importer.ImportShops(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to import shops")
	}
	if err := importer.ImportProducts(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to import products")
	}
}

// Importer reconciles the on-disk inventory shards against the store,
// one entity type at a time: read the shards, select the store's
// current view, three-way merge the shards onto the store view, then
// persist both the changed rows and the changed shards.
type Importer struct {
	store   *store.Store
	cfg     settings.DataConfig
	onlyNew bool
	dryRun  bool
}

func (imp *Importer) ImportShops(ctx context.Context) error {
	log := logger.StoreLogger("import-shops")

	fileShops := inventory.ReadShops(imp.cfg, func(path string, err error) {
		log.Warn().Str("path", path).Err(err).Msg("skipping malformed shop shard")
	})

	sess, err := imp.store.Open(ctx)
	if err != nil {
		return err
	}
	repo := store.NewShopRepository(sess.DB())

	storeShops, err := inventory.SelectShops(ctx, repo, imp.cfg)
	if err != nil {
		_ = sess.Close(err)
		return err
	}

	changed, err := inventory.MergeShops(storeShops, fileShops, true, imp.onlyNew)
	if err != nil {
		_ = sess.Close(err)
		return err
	}

	if !imp.dryRun {
		if err := persistShops(ctx, repo, changed); err != nil {
			_ = sess.Close(err)
			return err
		}
	}
	if err := sess.Close(nil); err != nil {
		return err
	}

	if !imp.dryRun {
		if err := inventory.WriteShops(changed); err != nil {
			return err
		}
	}
	log.Info().Int("shards", len(changed)).Msg("shops reconciled")
	return nil
}

func (imp *Importer) ImportProducts(ctx context.Context) error {
	log := logger.StoreLogger("import-products")

	template, err := inventory.ProductsTemplate(imp.cfg)
	if err != nil {
		return err
	}

	fileProducts, err := inventory.ReadProducts(imp.cfg.Path, template, func(path string, err error) {
		log.Warn().Str("path", path).Err(err).Msg("skipping malformed product shard")
	})
	if err != nil {
		return err
	}

	sess, err := imp.store.Open(ctx)
	if err != nil {
		return err
	}
	repo := store.NewProductRepository(sess.DB())

	storeProducts, err := inventory.SelectProducts(ctx, repo, template, imp.cfg.Path, nil)
	if err != nil {
		_ = sess.Close(err)
		return err
	}

	changed, err := inventory.MergeProducts(storeProducts, fileProducts, true, imp.onlyNew)
	if err != nil {
		_ = sess.Close(err)
		return err
	}

	if !imp.dryRun {
		if err := persistProducts(ctx, repo, changed); err != nil {
			_ = sess.Close(err)
			return err
		}
	}
	if err := sess.Close(nil); err != nil {
		return err
	}

	if !imp.dryRun {
		if err := inventory.WriteProducts(changed); err != nil {
			return err
		}
	}
	log.Info().Int("shards", len(changed)).Msg("products reconciled")
	return nil
}

// persistShops writes every shop in changed back to the store: an
// unseen key is created, a known one updated.
func persistShops(ctx context.Context, repo *store.ShopRepository, changed inventory.Shops) error {
	for _, shard := range changed {
		for _, shop := range shard {
			if _, err := repo.GetByKey(ctx, shop.Key); err != nil {
				if err := repo.Create(ctx, shop); err != nil {
					return err
				}
				continue
			}
			if err := repo.Update(ctx, shop); err != nil {
				return err
			}
		}
	}
	return nil
}

// persistProducts mirrors persistShops for products: a zero ID means
// the merge produced a brand-new row (never yet assigned an id by the
// store), everything else is an update to an existing one. Create/Update
// only touch the products table itself — Labels/Prices/Discounts/Range
// are not cascaded here, so this demo path never persists matcher or
// range-membership changes, only the product's own scalar fields.
func persistProducts(ctx context.Context, repo *store.ProductRepository, changed inventory.Products) error {
	for _, shard := range changed {
		for _, product := range shard {
			if product.ID == 0 {
				if err := repo.Create(ctx, product); err != nil {
					return err
				}
				continue
			}
			if err := repo.Update(ctx, product); err != nil {
				return err
			}
		}
	}
	return nil
}
