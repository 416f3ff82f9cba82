package main

import (
	"encoding/json"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/analytics"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/marketplace"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/config"
)

type report struct {
	TopSellers     []analytics.ReputationRank `json:"top_sellers"`
	TopBuyers      []analytics.ReputationRank `json:"top_buyers"`
	TopProducts    []analytics.ProductSales   `json:"top_products"`
	OrdersPerBuyer []analytics.BuyerOrders    `json:"orders_per_buyer"`
	Categories     []analytics.CategoryStats  `json:"categories"`
	Errors         map[string]string          `json:"errors,omitempty"`
}

var analyticsCmd = &cli.Command{
	Name:  "analytics",
	Usage: "print every analytics report for the configured store as JSON",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "top",
			Usage: "limit the products report; negative means all",
			Value: -1,
		},
	},
	Action: func(cctx *cli.Context) error {
		cfg, err := config.FromContext(cctx)
		if err != nil {
			return err
		}
		ctx := cctx.Context
		rt, err := setup(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer rt.Close(ctx)

		// No publisher: this command never writes.
		agg := analytics.NewAggregator(marketplace.NewService(rt.store, nil, rt.tel), rt.tel)

		var top *int
		if n := cctx.Int("top"); n >= 0 {
			top = &n
		}

		rep := report{Errors: map[string]string{}}
		note := func(name string, err error) {
			if err != nil {
				rep.Errors[name] = err.Error()
			}
		}
		rep.TopSellers, err = agg.TopSellers(ctx)
		note("top_sellers", err)
		rep.TopBuyers, err = agg.TopBuyers(ctx)
		note("top_buyers", err)
		rep.TopProducts, err = agg.TopProductsSold(ctx, top)
		note("top_products", err)
		rep.OrdersPerBuyer, err = agg.OrdersPerBuyer(ctx)
		note("orders_per_buyer", err)
		rep.Categories, err = agg.CategoryStatistics(ctx)
		note("categories", err)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	},
}
