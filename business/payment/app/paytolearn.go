package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/pool-service/business/payment/domain"
	"github.com/fd1az/pool-service/internal/apperror"
	"github.com/fd1az/pool-service/internal/logger"
)

var tracer = otel.Tracer("payment.app")

// CatalogStore is the part of Store the pay-to-learn flows use.
type CatalogStore interface {
	PackageStore
	StyleStore
	PurchaseStore
}

// PayToLearnService manages the package catalog, user styles and purchases.
type PayToLearnService struct {
	store CatalogStore
	log   logger.LoggerInterface
	now   func() time.Time
}

// NewPayToLearnService creates a PayToLearnService over store.
func NewPayToLearnService(store CatalogStore, log logger.LoggerInterface) *PayToLearnService {
	return &PayToLearnService{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.Validation(apperror.CodeRequiredField, field)
	}
	return nil
}

func storeError(op string, err error) error {
	return apperror.Internal(apperror.CodeStoreError, op, err)
}

func packageError(op, id string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return apperror.New(apperror.CodePackageNotFound,
			apperror.WithContext(id), apperror.WithCause(err))
	}
	return storeError(op, err)
}

// CreatePackage adds p to the catalog.
func (s *PayToLearnService) CreatePackage(ctx context.Context, p domain.Package) (_ domain.Package, err error) {
	ctx, span := tracer.Start(ctx, "payment.create_package", trace.WithAttributes(attribute.String("package_id", p.ID)))
	defer func() { endSpan(span, err) }()

	if err := required("id", p.ID); err != nil {
		return domain.Package{}, err
	}
	if err := s.store.CreatePackage(ctx, p); err != nil {
		return domain.Package{}, storeError("create package", err)
	}
	s.log.Info(ctx, "Package created", "package_id", p.ID)
	return p, nil
}

// UpdatePackage changes the set fields of package id and returns the result.
func (s *PayToLearnService) UpdatePackage(ctx context.Context, id string, u domain.PackageUpdate) (_ domain.Package, err error) {
	ctx, span := tracer.Start(ctx, "payment.update_package", trace.WithAttributes(attribute.String("package_id", id)))
	defer func() { endSpan(span, err) }()

	p, err := s.store.UpdatePackage(ctx, id, u)
	if err != nil {
		return domain.Package{}, packageError("update package", id, err)
	}
	return p, nil
}

// DeletePackage removes package id from the catalog.
func (s *PayToLearnService) DeletePackage(ctx context.Context, id string) (err error) {
	ctx, span := tracer.Start(ctx, "payment.delete_package", trace.WithAttributes(attribute.String("package_id", id)))
	defer func() { endSpan(span, err) }()

	if err := s.store.DeletePackage(ctx, id); err != nil {
		return packageError("delete package", id, err)
	}
	s.log.Info(ctx, "Package deleted", "package_id", id)
	return nil
}

// ListPackages returns the whole catalog.
func (s *PayToLearnService) ListPackages(ctx context.Context) (_ []domain.Package, err error) {
	ctx, span := tracer.Start(ctx, "payment.list_packages")
	defer func() { endSpan(span, err) }()

	pkgs, err := s.store.ListPackages(ctx)
	if err != nil {
		return nil, storeError("list packages", err)
	}
	if pkgs == nil {
		pkgs = []domain.Package{}
	}
	return pkgs, nil
}

// GetPackage returns one package, or a not-found error.
func (s *PayToLearnService) GetPackage(ctx context.Context, id string) (_ domain.Package, err error) {
	ctx, span := tracer.Start(ctx, "payment.get_package", trace.WithAttributes(attribute.String("package_id", id)))
	defer func() { endSpan(span, err) }()

	p, err := s.store.GetPackage(ctx, id)
	if err != nil {
		return domain.Package{}, packageError("get package", id, err)
	}
	return p, nil
}

// SelectStyle records the user's style, replacing any previous choice.
func (s *PayToLearnService) SelectStyle(ctx context.Context, userAddress string, style int) (_ domain.UserStyle, err error) {
	ctx, span := tracer.Start(ctx, "payment.select_style", trace.WithAttributes(attribute.String("user", userAddress)))
	defer func() { endSpan(span, err) }()

	if err := required("userAddress", userAddress); err != nil {
		return domain.UserStyle{}, err
	}
	us := domain.UserStyle{UserAddress: userAddress, Style: style}
	if err := s.store.UpsertStyle(ctx, us); err != nil {
		return domain.UserStyle{}, storeError("select style", err)
	}
	return us, nil
}

// GetUserStyle returns the user's style, or nil when none was selected.
func (s *PayToLearnService) GetUserStyle(ctx context.Context, userAddress string) (_ *int, err error) {
	ctx, span := tracer.Start(ctx, "payment.get_user_style", trace.WithAttributes(attribute.String("user", userAddress)))
	defer func() { endSpan(span, err) }()

	us, err := s.store.GetStyle(ctx, userAddress)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("get user style", err)
	}
	return &us.Style, nil
}

// LogPurchase appends p to the purchase ledger. A missing id is generated
// and a zero timestamp is set to now.
func (s *PayToLearnService) LogPurchase(ctx context.Context, p domain.Purchase) (_ domain.Purchase, err error) {
	ctx, span := tracer.Start(ctx, "payment.log_purchase", trace.WithAttributes(
		attribute.String("user", p.UserAddress),
		attribute.String("package_id", p.PackageID),
	))
	defer func() { endSpan(span, err) }()

	if err := required("userAddress", p.UserAddress); err != nil {
		return domain.Purchase{}, err
	}
	if err := required("packageId", p.PackageID); err != nil {
		return domain.Purchase{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = s.now()
	}

	if err := s.store.InsertPurchase(ctx, p); err != nil {
		return domain.Purchase{}, storeError("log purchase", err)
	}
	s.log.Info(ctx, "Purchase logged", "user", p.UserAddress, "package_id", p.PackageID)
	return p, nil
}

// PurchasedPackageIDs lists the package ids the user bought.
func (s *PayToLearnService) PurchasedPackageIDs(ctx context.Context, userAddress string) (_ []string, err error) {
	ctx, span := tracer.Start(ctx, "payment.purchased_packages", trace.WithAttributes(attribute.String("user", userAddress)))
	defer func() { endSpan(span, err) }()

	ids, err := s.store.PurchasedPackageIDs(ctx, userAddress)
	if err != nil {
		return nil, storeError("get purchased packages", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// HasPurchased reports whether the user bought packageID. A lookup that
// finds no row is a negative answer; any other store failure is returned.
func (s *PayToLearnService) HasPurchased(ctx context.Context, userAddress, packageID string) (_ bool, err error) {
	ctx, span := tracer.Start(ctx, "payment.has_purchased", trace.WithAttributes(
		attribute.String("user", userAddress),
		attribute.String("package_id", packageID),
	))
	defer func() { endSpan(span, err) }()

	_, err = s.store.FindPurchase(ctx, userAddress, packageID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	default:
		return false, storeError("has purchased", err)
	}
}
