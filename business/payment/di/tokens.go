// Package di contains dependency injection tokens for the payment context.
package di

import (
	"github.com/fd1az/pool-service/business/payment/app"
	"github.com/fd1az/pool-service/internal/di"
)

// Public service tokens - exposed to other modules
var (
	PayToLearnService  = di.NewToken[*app.PayToLearnService]("payment.PayToLearnService")
	TransactionService = di.NewToken[*app.TransactionService]("payment.TransactionService")
	Store              = di.NewToken[app.Store]("payment.Store")
)

func GetPayToLearnService(c di.ServiceRegistry) *app.PayToLearnService {
	return di.GetToken(c, PayToLearnService)
}

func GetTransactionService(c di.ServiceRegistry) *app.TransactionService {
	return di.GetToken(c, TransactionService)
}

func GetStore(c di.ServiceRegistry) app.Store {
	return di.GetToken(c, Store)
}
