// Package di contains dependency injection tokens for the liquidity context.
package di

import (
	"github.com/fd1az/pool-service/business/liquidity/app"
	"github.com/fd1az/pool-service/business/liquidity/infra/bluefin"
	"github.com/fd1az/pool-service/business/liquidity/infra/flowx"
	"github.com/fd1az/pool-service/internal/di"
)

// Public service tokens - exposed to other modules
var (
	LiquidityService = di.NewToken[*app.LiquidityService]("liquidity.LiquidityService")
)

// Private dependency tokens - internal to liquidity module
var (
	BluefinProvider = di.NewToken[*bluefin.Provider]("liquidity:bluefinProvider")
	FlowXProvider   = di.NewToken[*flowx.Provider]("liquidity:flowxProvider")
)

func GetLiquidityService(c di.ServiceRegistry) *app.LiquidityService {
	return di.GetToken(c, LiquidityService)
}

func GetBluefinProvider(c di.ServiceRegistry) *bluefin.Provider {
	return di.GetToken(c, BluefinProvider)
}

func GetFlowXProvider(c di.ServiceRegistry) *flowx.Provider {
	return di.GetToken(c, FlowXProvider)
}
