package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tableside/tableside/internal/domain"
	"github.com/tableside/tableside/internal/testutil"
)

func TestOrderRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewOrderRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	placedAt := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

	t.Run("Create and Get keep line snapshots", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		tableID := testutil.InsertTable(t, ctx, pool, 4, "window")
		itemID := testutil.InsertItem(t, ctx, pool, "Moqueca", "food", "42.50")

		var created domain.Order
		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			var err error
			created, err = repo.Create(txCtx, domain.Order{
				TableID:  tableID,
				PlacedAt: placedAt,
				Discount: decimal.Zero,
				Lines: []domain.OrderLine{
					{ItemID: itemID, Name: "Moqueca", Type: "food", Quantity: 2, UnitPrice: decimal.RequireFromString("42.50")},
				},
			})
			return err
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		// Bump the menu price; the stored line must not move.
		if _, err := pool.Exec(ctx, `UPDATE items SET price = 50 WHERE id = $1`, itemID); err != nil {
			t.Fatalf("update item price: %v", err)
		}

		got, err := repo.Get(ctx, created.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(got.Lines) != 1 {
			t.Fatalf("expected 1 line, got %d", len(got.Lines))
		}
		line := got.Lines[0]
		if line.ItemID != itemID || line.Quantity != 2 || !line.UnitPrice.Equal(decimal.RequireFromString("42.50")) {
			t.Fatalf("unexpected line: %+v", line)
		}
		if line.Name != "Moqueca" || line.Type != "food" {
			t.Fatalf("unexpected snapshot fields: %+v", line)
		}
	})

	t.Run("Create with unknown item rolls back the header", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		tableID := testutil.InsertTable(t, ctx, pool, 4, "window")

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			_, err := repo.Create(txCtx, domain.Order{
				TableID:  tableID,
				PlacedAt: placedAt,
				Lines: []domain.OrderLine{
					{ItemID: 9999, Name: "ghost", Type: "food", Quantity: 1, UnitPrice: decimal.NewFromInt(1)},
				},
			})
			return err
		})
		if err != domain.ErrItemNotFound {
			t.Fatalf("expected ErrItemNotFound, got %v", err)
		}

		var count int
		if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
			t.Fatalf("count orders: %v", err)
		}
		if count != 0 {
			t.Fatalf("expected no orders, got %d", count)
		}
	})

	t.Run("Update replaces the line set", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		tableID := testutil.InsertTable(t, ctx, pool, 4, "window")
		first := testutil.InsertItem(t, ctx, pool, "Moqueca", "food", "42.50")
		second := testutil.InsertItem(t, ctx, pool, "Guarana", "drink", "6.00")

		var created domain.Order
		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			var err error
			created, err = repo.Create(txCtx, domain.Order{
				TableID:  tableID,
				PlacedAt: placedAt,
				Lines: []domain.OrderLine{
					{ItemID: first, Name: "Moqueca", Type: "food", Quantity: 1, UnitPrice: decimal.RequireFromString("42.50")},
				},
			})
			return err
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		created.Lines = []domain.OrderLine{
			{ItemID: second, Name: "Guarana", Type: "drink", Quantity: 3, UnitPrice: decimal.RequireFromString("6.00")},
		}
		err = repo.WithTx(ctx, func(txCtx context.Context) error {
			return repo.Update(txCtx, created)
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}

		got, err := repo.Get(ctx, created.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(got.Lines) != 1 || got.Lines[0].ItemID != second || got.Lines[0].Quantity != 3 {
			t.Fatalf("unexpected lines: %+v", got.Lines)
		}
	})

	t.Run("SetPaid and ListByStatus", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		tableID := testutil.InsertTable(t, ctx, pool, 4, "window")

		openID := testutil.InsertOrder(t, ctx, pool, tableID, placedAt, false)
		testutil.InsertOrder(t, ctx, pool, tableID, placedAt.Add(time.Hour), false)

		if err := repo.SetPaid(ctx, openID); err != nil {
			t.Fatalf("set paid: %v", err)
		}
		if err := repo.SetPaid(ctx, 9999); err != domain.ErrOrderNotFound {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}

		pending, err := repo.ListByStatus(ctx, false, false)
		if err != nil {
			t.Fatalf("list pending: %v", err)
		}
		if len(pending) != 1 {
			t.Fatalf("expected 1 pending order, got %d", len(pending))
		}

		got, err := repo.Get(ctx, openID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if !got.Paid {
			t.Fatal("expected order to be paid")
		}

		unpaid, err := repo.ListUnpaid(ctx)
		if err != nil {
			t.Fatalf("list unpaid: %v", err)
		}
		if len(unpaid) != 1 || unpaid[0].ID == openID {
			t.Fatalf("expected only the open order, got %+v", unpaid)
		}
	})

	t.Run("Delete removes lines and header", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		tableID := testutil.InsertTable(t, ctx, pool, 4, "window")
		itemID := testutil.InsertItem(t, ctx, pool, "Moqueca", "food", "42.50")

		var created domain.Order
		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			var err error
			created, err = repo.Create(txCtx, domain.Order{
				TableID:  tableID,
				PlacedAt: placedAt,
				Lines: []domain.OrderLine{
					{ItemID: itemID, Name: "Moqueca", Type: "food", Quantity: 1, UnitPrice: decimal.RequireFromString("42.50")},
				},
			})
			return err
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		err = repo.WithTx(ctx, func(txCtx context.Context) error {
			return repo.Delete(txCtx, created.ID)
		})
		if err != nil {
			t.Fatalf("delete: %v", err)
		}

		var lines int
		if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM order_lines WHERE order_id = $1`, created.ID).Scan(&lines); err != nil {
			t.Fatalf("count lines: %v", err)
		}
		if lines != 0 {
			t.Fatalf("expected no lines, got %d", lines)
		}
		if _, err := repo.Get(ctx, created.ID); err != domain.ErrOrderNotFound {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
	})
}
