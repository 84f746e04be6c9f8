package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/pool-service/business/payment/domain"
	"github.com/fd1az/pool-service/internal/logger"
)

// TransactionService records and lists on-chain purchase transactions.
type TransactionService struct {
	store TransactionStore
	log   logger.LoggerInterface
	now   func() time.Time
}

// NewTransactionService creates a TransactionService over store.
func NewTransactionService(store TransactionStore, log logger.LoggerInterface) *TransactionService {
	return &TransactionService{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// LogTransaction appends tx to the ledger.
func (s *TransactionService) LogTransaction(ctx context.Context, tx domain.Transaction) (_ domain.Transaction, err error) {
	ctx, span := tracer.Start(ctx, "payment.log_transaction", trace.WithAttributes(
		attribute.String("user", tx.UserAddress),
		attribute.String("tx_hash", tx.TxHash),
	))
	defer func() { endSpan(span, err) }()

	if err := required("userAddress", tx.UserAddress); err != nil {
		return domain.Transaction{}, err
	}
	if err := required("packageId", tx.PackageID); err != nil {
		return domain.Transaction{}, err
	}
	if err := required("txHash", tx.TxHash); err != nil {
		return domain.Transaction{}, err
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = s.now()
	}

	if err := s.store.InsertTransaction(ctx, tx); err != nil {
		return domain.Transaction{}, storeError("log transaction", err)
	}
	s.log.Info(ctx, "Transaction logged", "user", tx.UserAddress, "tx_hash", tx.TxHash)
	return tx, nil
}

// UserTransactions lists the user's transactions, newest first.
func (s *TransactionService) UserTransactions(ctx context.Context, userAddress string) (_ []domain.Transaction, err error) {
	ctx, span := tracer.Start(ctx, "payment.user_transactions", trace.WithAttributes(attribute.String("user", userAddress)))
	defer func() { endSpan(span, err) }()

	txs, err := s.store.TransactionsByUser(ctx, userAddress)
	if err != nil {
		return nil, storeError("get user transactions", err)
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return txs, nil
}

// AllTransactions lists every transaction, newest first.
func (s *TransactionService) AllTransactions(ctx context.Context) (_ []domain.Transaction, err error) {
	ctx, span := tracer.Start(ctx, "payment.all_transactions")
	defer func() { endSpan(span, err) }()

	txs, err := s.store.AllTransactions(ctx)
	if err != nil {
		return nil, storeError("get all transactions", err)
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return txs, nil
}
