package pdf

import (
	"context"
	"os"
	"time"

	"github.com/ximepaparella/gifty-api/internal/cache"
	"github.com/ximepaparella/gifty-api/internal/models"
	"github.com/ximepaparella/gifty-api/internal/repository"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// A4 paper dimensions in inches for PrintToPDF
const (
	paperWidthIn  = 8.27
	paperHeightIn = 11.69
	marginIn      = 0.4
)

// Renderer renders voucher PDFs through a headless browser. Store and product
// handles are injected at construction; the renderer never looks entities up
// by name at runtime.
type Renderer struct {
	stores      repository.StoreRepository
	products    repository.ProductRepository
	cache       *cache.RedisCache
	storageDir  string
	templateDir string
	timeout     time.Duration
}

// NewRenderer creates a new PDF renderer
func NewRenderer(
	stores repository.StoreRepository,
	products repository.ProductRepository,
	redisCache *cache.RedisCache,
	storageDir, templateDir string,
	timeout time.Duration,
) *Renderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Renderer{
		stores:      stores,
		products:    products,
		cache:       redisCache,
		storageDir:  storageDir,
		templateDir: templateDir,
		timeout:     timeout,
	}
}

// ArtifactPath returns the storage path the renderer uses for a voucher code
func (r *Renderer) ArtifactPath(code string) string {
	return ArtifactPath(r.storageDir, code)
}

// Render produces the PDF artifact for an order's voucher, writes it to the
// code-derived path and returns the bytes plus the path. A voucher is never
// rendered with incomplete provenance: a missing store or product fails fast.
func (r *Renderer) Render(ctx context.Context, order *models.Order) ([]byte, string, error) {
	store, product, err := r.resolveProvenance(ctx, order)
	if err != nil {
		return nil, "", err
	}

	layout, err := LoadTemplate(r.templateDir, order.Voucher.Template)
	if err != nil {
		log.Error().
			Err(err).
			Str("template", string(order.Voucher.Template)).
			Str("code", order.Voucher.Code).
			Msg("Failed to load voucher template")
		return nil, "", err
	}

	qr := order.Voucher.QRCode
	if qr == "" {
		qr, err = QRCodeDataURI(order.Voucher.Code)
		if err != nil {
			return nil, "", err
		}
	}

	html := FillTemplate(layout, TemplateData{
		StoreName:          store.Name,
		StoreAddress:       store.Address,
		StorePhone:         store.Phone,
		StoreEmail:         store.Email,
		StoreLogo:          store.Logo,
		ProductName:        product.Name,
		ProductDescription: product.Description,
		Amount:             FormatAmount(order.Voucher.Amount),
		Code:               order.Voucher.Code,
		ExpirationDate:     FormatExpiration(order.Voucher.ExpirationDate),
		SenderName:         order.Voucher.SenderName,
		ReceiverName:       order.Voucher.ReceiverName,
		Message:            order.Voucher.Message,
		QRCode:             qr,
	})

	pdfBytes, err := r.printToPDF(ctx, html)
	if err != nil {
		log.Error().
			Err(err).
			Str("code", order.Voucher.Code).
			Msg("Headless browser failed to render voucher PDF")
		return nil, "", err
	}

	if err := os.MkdirAll(r.storageDir, 0o755); err != nil {
		return nil, "", errors.Wrap(err, "failed to create PDF storage directory")
	}

	path := r.ArtifactPath(order.Voucher.Code)
	if err := os.WriteFile(path, pdfBytes, 0o644); err != nil {
		return nil, "", errors.Wrap(err, "failed to write voucher PDF")
	}

	log.Info().
		Str("code", order.Voucher.Code).
		Str("path", path).
		Int("bytes", len(pdfBytes)).
		Msg("Voucher PDF rendered")

	return pdfBytes, path, nil
}

// resolveProvenance loads the store and product referenced by the voucher,
// going through the cache when it is available
func (r *Renderer) resolveProvenance(ctx context.Context, order *models.Order) (*models.Store, *models.Product, error) {
	var (
		g       errgroup.Group
		store   *models.Store
		product *models.Product
	)

	g.Go(func() error {
		var cached models.Store
		if r.cache.Enabled() {
			if err := r.cache.Get(ctx, cache.StoreCacheKey(order.Voucher.StoreID), &cached); err == nil {
				store = &cached
				return nil
			}
		}
		s, err := r.stores.GetByID(ctx, order.Voucher.StoreID)
		if err != nil {
			return errors.Wrapf(err, "store %s lookup failed", order.Voucher.StoreID)
		}
		store = s
		if r.cache.Enabled() {
			if err := r.cache.Set(ctx, cache.StoreCacheKey(s.ID), s, 10*time.Minute); err != nil {
				log.Warn().Err(err).Msg("Failed to cache store")
			}
		}
		return nil
	})

	g.Go(func() error {
		var cached models.Product
		if r.cache.Enabled() {
			if err := r.cache.Get(ctx, cache.ProductCacheKey(order.Voucher.ProductID), &cached); err == nil {
				product = &cached
				return nil
			}
		}
		p, err := r.products.GetByID(ctx, order.Voucher.ProductID)
		if err != nil {
			return errors.Wrapf(err, "product %s lookup failed", order.Voucher.ProductID)
		}
		product = p
		if r.cache.Enabled() {
			if err := r.cache.Set(ctx, cache.ProductCacheKey(p.ID), p, 10*time.Minute); err != nil {
				log.Warn().Err(err).Msg("Failed to cache product")
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return store, product, nil
}

// printToPDF drives a headless Chrome page to rasterize the filled HTML.
// Both contexts are cancelled on every exit path so the browser process is
// never leaked, renderer crash included.
func (r *Renderer) printToPDF(ctx context.Context, html string) ([]byte, error) {
	renderCtx, cancelTimeout := context.WithTimeout(ctx, r.timeout)
	defer cancelTimeout()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(renderCtx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	var pdfBytes []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		// Wait for embedded images (logo, QR) to settle before capturing
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBytes, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidthIn).
				WithPaperHeight(paperHeightIn).
				WithMarginTop(marginIn).
				WithMarginBottom(marginIn).
				WithMarginLeft(marginIn).
				WithMarginRight(marginIn).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to print page to PDF")
	}

	return pdfBytes, nil
}
