package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Feature: product-catalog, Property 1: SKU and slug stay unique across any sequence of creates
func TestProperty_CreateKeepsSKUAndSlugUnique(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("no two stored products share a sku or a slug", prop.ForAll(
		func(skus []int, slugs []int) bool {
			f := newFixture(t)
			ctx := context.Background()

			n := len(skus)
			if len(slugs) < n {
				n = len(slugs)
			}
			for i := 0; i < n; i++ {
				p := newProduct(fmt.Sprintf("id-%d", i), fmt.Sprintf("SKU-%d", skus[i]), fmt.Sprintf("slug-%d", slugs[i]))
				_ = f.products.Create(ctx, p)
			}

			products, err := f.products.List(ctx)
			if err != nil {
				return false
			}
			seenSKU := map[string]bool{}
			seenSlug := map[string]bool{}
			for _, p := range products {
				if seenSKU[p.SKU] || seenSlug[p.Slug] {
					t.Logf("FAIL: duplicate sku %q or slug %q", p.SKU, p.Slug)
					return false
				}
				seenSKU[p.SKU] = true
				seenSlug[p.Slug] = true
			}
			return true
		},
		gen.SliceOfN(20, gen.IntRange(0, 8)),
		gen.SliceOfN(20, gen.IntRange(0, 8)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: product-catalog, Property 2: Bulk delete counts only products that existed
func TestProperty_DeleteManyCountsExisting(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("removed count equals distinct existing ids", prop.ForAll(
		func(picks []int) bool {
			f := newFixture(t)
			ctx := context.Background()

			before, err := f.products.List(ctx)
			if err != nil {
				return false
			}

			ids := make([]string, 0, len(picks))
			existing := map[string]bool{}
			for _, pick := range picks {
				id := fmt.Sprintf("prod-%03d", pick)
				ids = append(ids, id)
				for _, p := range before {
					if p.ID == id {
						existing[id] = true
					}
				}
			}

			removed, err := f.products.DeleteMany(ctx, ids)
			if err != nil {
				return false
			}
			after, err := f.products.List(ctx)
			if err != nil {
				return false
			}
			return removed == len(existing) && len(after) == len(before)-removed
		},
		gen.SliceOf(gen.IntRange(0, 9)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
