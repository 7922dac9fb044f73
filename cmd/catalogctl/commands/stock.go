package commands

import (
	"context"
	"fmt"
	"strconv"

	"motico-catalog/cmd/catalogctl/output"
	"motico-catalog/internal/catalog"
	"motico-catalog/internal/domain"

	"github.com/spf13/cobra"
)

var (
	// Stock movement flags
	delta     int
	reason    string
	notes     string
	variantID string
)

// adjustCmd moves stock by a signed delta
var adjustCmd = &cobra.Command{
	Use:   "adjust <product-id>",
	Short: "Move stock by a signed delta",
	Long: `Add or remove units from a product, or from one of its variants.
The resulting quantity never drops below zero.

Examples:
  catalogctl adjust prod-004 --delta 25 --reason restock
  catalogctl adjust prod-005 --delta=-3 --reason damaged --notes "Torn on arrival"
  catalogctl adjust prod-001 --variant var-001-2 --delta=-10 --reason sale`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := domain.InventoryReason(reason)
		if !r.Valid() || r == domain.ReasonInitial {
			return fmt.Errorf("invalid reason %q: use sale, return, adjustment, restock or damaged", reason)
		}

		return withCatalog(cmd, func(ctx context.Context, c *catalog.Catalog, out *output.Printer) error {
			var (
				product *domain.Product
				err     error
			)
			if variantID != "" {
				product, err = c.Inventory.AdjustVariant(ctx, args[0], variantID, delta, r, notes, actorOrSystem())
			} else {
				product, err = c.Inventory.Adjust(ctx, args[0], delta, r, notes, actorOrSystem())
			}
			if err != nil {
				return err
			}
			return reportStock(cmd, out, product)
		})
	},
}

// setCmd records a physical count
var setCmd = &cobra.Command{
	Use:   "set <product-id> <quantity>",
	Short: "Set stock to an absolute quantity",
	Long: `Record a stock count. The movement is logged with reason "adjustment".

Examples:
  catalogctl set prod-006 40 --notes "Cycle count"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		quantity, err := strconv.Atoi(args[1])
		if err != nil || quantity < 0 {
			return fmt.Errorf("quantity must be a non-negative integer, got %q", args[1])
		}

		return withCatalog(cmd, func(ctx context.Context, c *catalog.Catalog, out *output.Printer) error {
			product, err := c.Inventory.Set(ctx, args[0], quantity, notes, actorOrSystem())
			if err != nil {
				return err
			}
			return reportStock(cmd, out, product)
		})
	},
}

// logsCmd prints the inventory log of a product
var logsCmd = &cobra.Command{
	Use:   "logs <product-id>",
	Short: "Show the stock movements of a product, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(ctx context.Context, c *catalog.Catalog, out *output.Printer) error {
			logs, err := c.Inventory.Logs(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd, logs)
			}
			if len(logs) == 0 {
				out.Info("No stock movements recorded for %s", args[0])
				return nil
			}

			rows := make([][]string, 0, len(logs))
			for _, entry := range logs {
				target := entry.ProductID
				if entry.VariantID != nil {
					target = *entry.VariantID
				}
				entryNotes := ""
				if entry.Notes != nil {
					entryNotes = *entry.Notes
				}
				rows = append(rows, []string{
					entry.CreatedAt.Format("2006-01-02 15:04:05"),
					target,
					fmt.Sprintf("%+d", entry.Change),
					fmt.Sprintf("%d → %d", entry.PreviousQuantity, entry.NewQuantity),
					string(entry.Reason),
					entry.UserID,
					entryNotes,
				})
			}
			out.Table([]string{"When", "Target", "Change", "Quantity", "Reason", "User", "Notes"}, rows)
			return nil
		})
	},
}

func reportStock(cmd *cobra.Command, out *output.Printer, product *domain.Product) error {
	if jsonOutput {
		return printJSON(cmd, product)
	}
	out.Success("%s now holds %d unit(s)", product.ID, product.StockQuantity)
	out.Info("Status: %s %s", output.StockIcon(string(product.StockStatus)), product.StockStatus)
	if product.StockStatus != domain.StockStatusInStock {
		out.Warning("At or below the minimum stock level of %d", product.MinStockLevel)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(adjustCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(logsCmd)

	adjustCmd.Flags().IntVar(&delta, "delta", 0, "Signed number of units to add or remove")
	adjustCmd.Flags().StringVar(&reason, "reason", "", "sale, return, adjustment, restock or damaged")
	adjustCmd.Flags().StringVar(&variantID, "variant", "", "Adjust this variant instead of the product")
	_ = adjustCmd.MarkFlagRequired("delta")
	_ = adjustCmd.MarkFlagRequired("reason")

	for _, cmd := range []*cobra.Command{adjustCmd, setCmd} {
		cmd.Flags().StringVar(&notes, "notes", "", "Free text stored on the log entry")
	}
}
