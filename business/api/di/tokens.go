// Package di contains dependency injection tokens for the HTTP API.
package di

import (
	"github.com/fd1az/pool-service/business/api/rest"
	"github.com/fd1az/pool-service/internal/di"
)

var (
	Server = di.NewToken[*rest.Server]("api.Server")
)

func GetServer(c di.ServiceRegistry) *rest.Server {
	return di.GetToken(c, Server)
}
