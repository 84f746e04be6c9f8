package memory

import (
	"testing"

	"github.com/fd1az/pool-service/business/payment/app"
	"github.com/fd1az/pool-service/business/payment/infra/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(*testing.T) app.Store { return New() })
}
