package domain

// CalculateStockStatus classifies a quantity against its alert threshold.
// The threshold is inclusive: quantity == minLevel is low stock.
func CalculateStockStatus(quantity, minLevel int) StockStatus {
	if quantity <= 0 {
		return StockStatusOutOfStock
	}
	if quantity <= minLevel {
		return StockStatusLowStock
	}
	return StockStatusInStock
}
