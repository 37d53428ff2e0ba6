// Stress tool: hammers the order path with concurrent purchases of the
// same record and verifies the ledger never oversells.
package main

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vinylvault/pos/internal/adapter/storage"
	"github.com/vinylvault/pos/internal/core/domain"
	"github.com/vinylvault/pos/internal/core/service"
)

const (
	initialStock  = 20
	totalRequests = 50
)

func main() {
	ctx := context.Background()

	mem := storage.NewMemoryAdapter()
	catalog := service.NewCatalogService(mem, nil)
	orders := service.NewOrderService(mem, mem, nil)

	customerID, err := mem.CreateCustomer(ctx, &domain.Customer{
		FirstName: "Load",
		LastName:  "Tester",
		Email:     "load@example.com",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create customer")
	}

	price := decimal.RequireFromString("24.99")
	productID, err := catalog.Register(ctx, domain.Product{
		Title:  "Stress Test Pressing",
		Artist: "The Benchmarks",
		Genre:  "Electronic",
		Label:  "Loadtest Records",
		Price:  price,
	}, []service.FormatSelection{{Format: domain.FormatVinyl, Quantity: initialStock}})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register product")
	}

	var committed, rejected atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := orders.CreateOrder(ctx, customerID, []service.OrderLineRequest{{
				ProductID: productID,
				Format:    domain.FormatVinyl,
				Quantity:  1,
				UnitPrice: price,
			}})
			if err == nil {
				committed.Add(1)
			} else {
				rejected.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	record, err := mem.GetInventoryRecord(ctx, productID, domain.FormatVinyl)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read final stock")
	}

	log.Info().
		Int32("committed", committed.Load()).
		Int32("rejected", rejected.Load()).
		Int("finalStock", record.Quantity).
		Dur("elapsed", elapsed).
		Msg("stress run complete")

	if record.Quantity < 0 || committed.Load() != initialStock {
		log.Fatal().Msg("oversell detected")
	}
	log.Info().Msg("no oversell: every committed order was backed by stock")
}
