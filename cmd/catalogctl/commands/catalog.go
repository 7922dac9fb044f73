package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"motico-catalog/cmd/catalogctl/output"
	"motico-catalog/internal/catalog"
	"motico-catalog/internal/domain"

	"github.com/spf13/cobra"
)

var (
	// Clear flags
	force bool

	// List flags
	lowStock   bool
	outOfStock bool
	search     string
)

// resetCmd restores the bundled dataset
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the bundled catalog dataset",
	Long: `Overwrite products, categories and brands with the bundled dataset
and empty the inventory log.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(ctx context.Context, c *catalog.Catalog, out *output.Printer) error {
			if err := c.ResetAll(ctx); err != nil {
				return err
			}
			out.Success("Catalog restored to the bundled dataset")
			return nil
		})
	},
}

// clearCmd empties every collection
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every product, category, brand and log entry",
	Long: `Delete the product, category, brand and inventory log collections.

When seeding is enabled (STORAGE_SEED) the next read restores the
bundled dataset.

Examples:
  catalogctl clear --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !force {
			return errors.New("refusing to clear the catalog without --force")
		}
		return withCatalog(cmd, func(ctx context.Context, c *catalog.Catalog, out *output.Printer) error {
			if err := c.ClearAll(ctx); err != nil {
				return err
			}
			out.Success("Catalog cleared")
			return nil
		})
	},
}

// statsCmd prints the dashboard counters
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(ctx context.Context, c *catalog.Catalog, out *output.Printer) error {
			stats, err := c.Products.Stats(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd, stats)
			}

			out.Section("Catalog")
			out.Table([]string{"Counter", "Value"}, [][]string{
				{"Products", strconv.Itoa(stats.TotalProducts)},
				{"Published", strconv.Itoa(stats.PublishedProducts)},
				{"Low stock", strconv.Itoa(stats.LowStockProducts)},
				{"Out of stock", strconv.Itoa(stats.OutOfStockProducts)},
				{"Categories", strconv.Itoa(stats.TotalCategories)},
				{"Brands", strconv.Itoa(stats.TotalBrands)},
			})
			return nil
		})
	},
}

// listCmd prints products with their stock position
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List products and their stock",
	Long: `List products with their stock quantity and status.

Examples:
  catalogctl list
  catalogctl list --low-stock
  catalogctl list --search lija`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if lowStock && outOfStock {
			return errors.New("--low-stock and --out-of-stock are mutually exclusive")
		}
		return withCatalog(cmd, func(ctx context.Context, c *catalog.Catalog, out *output.Printer) error {
			products, err := listProducts(ctx, c)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd, products)
			}
			if len(products) == 0 {
				out.Info("No products")
				return nil
			}

			rows := make([][]string, 0, len(products))
			for _, p := range products {
				rows = append(rows, []string{
					output.StockIcon(string(p.StockStatus)),
					p.ID,
					p.SKU,
					p.Name,
					strconv.Itoa(p.StockQuantity),
					string(p.StockStatus),
				})
			}
			out.Table([]string{"", "ID", "SKU", "Name", "Stock", "Status"}, rows)
			out.Muted("%d product(s)", len(products))
			return nil
		})
	},
}

func listProducts(ctx context.Context, c *catalog.Catalog) ([]domain.Product, error) {
	switch {
	case lowStock:
		return c.Products.LowStock(ctx)
	case outOfStock:
		return c.Products.OutOfStock(ctx)
	case search != "":
		products, err := c.Products.Search(ctx, search)
		if err != nil {
			return nil, fmt.Errorf("search products: %w", err)
		}
		return products, nil
	default:
		return c.Products.List(ctx)
	}
}

func init() {
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(listCmd)

	clearCmd.Flags().BoolVar(&force, "force", false, "Confirm removal of every record")

	listCmd.Flags().BoolVar(&lowStock, "low-stock", false, "Only products at or below their minimum stock level")
	listCmd.Flags().BoolVar(&outOfStock, "out-of-stock", false, "Only products with no stock")
	listCmd.Flags().StringVar(&search, "search", "", "Only published products matching the text")
}
