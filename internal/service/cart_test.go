package service_test

import (
	"testing"

	"github.com/sebav/tienda/internal/domain"
	"github.com/sebav/tienda/internal/service"
)

var (
	gpu      = domain.Product{ID: 1, Name: "Tarjeta Gráfica", Price: 1400000}
	keyboard = domain.Product{ID: 2, Name: "Teclado Mecánico", Price: 130000}
)

func TestCartService_Add_NewLineAndIncrement(t *testing.T) {
	cart := service.NewCartService()

	cart.Add(gpu)
	cart.Add(keyboard)
	cart.Add(gpu)

	items := cart.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(items))
	}
	// Line order follows first add, not most recent.
	if items[0].Product.ID != gpu.ID || items[0].Quantity != 2 {
		t.Fatalf("expected first line gpu x2, got product %d x%d", items[0].Product.ID, items[0].Quantity)
	}
	if items[1].Product.ID != keyboard.ID || items[1].Quantity != 1 {
		t.Fatalf("expected second line keyboard x1, got product %d x%d", items[1].Product.ID, items[1].Quantity)
	}
}

func TestCartService_CountAndTotal(t *testing.T) {
	cart := service.NewCartService()

	if cart.Count() != 0 {
		t.Fatalf("expected empty cart count 0, got %d", cart.Count())
	}

	cart.Add(gpu)
	cart.Add(gpu)
	cart.Add(keyboard)

	if cart.Count() != 3 {
		t.Fatalf("expected count 3, got %d", cart.Count())
	}
	want := gpu.Price*2 + keyboard.Price
	if cart.Total() != want {
		t.Fatalf("expected total %f, got %f", want, cart.Total())
	}
}

func TestCartService_Decrease_RemovesLineAtOne(t *testing.T) {
	cart := service.NewCartService()
	cart.Add(gpu)
	cart.Add(gpu)

	cart.Decrease(gpu.ID)
	items := cart.Items()
	if len(items) != 1 || items[0].Quantity != 1 {
		t.Fatalf("expected gpu x1, got %+v", items)
	}

	// Last unit removes the line, never leaving quantity zero.
	cart.Decrease(gpu.ID)
	if len(cart.Items()) != 0 {
		t.Fatalf("expected empty cart, got %+v", cart.Items())
	}
}

func TestCartService_IncreaseDecrease_UnknownProductIsNoop(t *testing.T) {
	cart := service.NewCartService()
	cart.Add(gpu)

	cart.Increase(999)
	cart.Decrease(999)

	items := cart.Items()
	if len(items) != 1 || items[0].Quantity != 1 {
		t.Fatalf("expected cart untouched, got %+v", items)
	}
}

func TestCartService_RemoveAndClear(t *testing.T) {
	cart := service.NewCartService()
	cart.Add(gpu)
	cart.Add(keyboard)

	cart.Remove(gpu.ID)
	items := cart.Items()
	if len(items) != 1 || items[0].Product.ID != keyboard.ID {
		t.Fatalf("expected only keyboard left, got %+v", items)
	}

	cart.Clear()
	if cart.Count() != 0 {
		t.Fatalf("expected empty cart after clear, got count %d", cart.Count())
	}
}

func TestCartService_Settle(t *testing.T) {
	cart := service.NewCartService()
	cart.Add(gpu)
	cart.Add(gpu)
	cart.Add(keyboard)

	count, total := cart.Settle()
	if count != 3 {
		t.Fatalf("expected settled count 3, got %d", count)
	}
	if want := gpu.Price*2 + keyboard.Price; total != want {
		t.Fatalf("expected settled total %f, got %f", want, total)
	}
	if cart.Count() != 0 {
		t.Fatalf("expected empty cart after settle, got count %d", cart.Count())
	}
}

func TestCartService_Settle_NeverLosesConcurrentAdds(t *testing.T) {
	cart := service.NewCartService()
	const adds = 200

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < adds; i++ {
			cart.Add(gpu)
		}
	}()

	// Every added unit either lands on a receipt or stays in the cart;
	// none may disappear between capture and clear.
	settled := 0
	for i := 0; i < 50; i++ {
		count, _ := cart.Settle()
		settled += count
	}
	<-done
	if got := settled + cart.Count(); got != adds {
		t.Fatalf("expected %d units accounted for, got %d", adds, got)
	}
}

func TestCartService_Items_ReturnsSnapshot(t *testing.T) {
	cart := service.NewCartService()
	cart.Add(gpu)

	items := cart.Items()
	items[0].Quantity = 99

	if got := cart.Items()[0].Quantity; got != 1 {
		t.Fatalf("mutating a snapshot leaked into the cart: quantity %d", got)
	}
}

func TestCartService_Subscribe_ReplaysCurrentState(t *testing.T) {
	cart := service.NewCartService()
	cart.Add(gpu)

	updates, cancel := cart.Subscribe()
	defer cancel()

	// A new subscriber immediately sees the state at subscribe time.
	lines := <-updates
	if len(lines) != 1 || lines[0].Product.ID != gpu.ID {
		t.Fatalf("expected replayed snapshot with gpu, got %+v", lines)
	}
}

func TestCartService_Subscribe_ReceivesMutations(t *testing.T) {
	cart := service.NewCartService()

	updates, cancel := cart.Subscribe()
	defer cancel()

	if lines := <-updates; len(lines) != 0 {
		t.Fatalf("expected initial empty snapshot, got %+v", lines)
	}

	cart.Add(keyboard)
	lines := <-updates
	if len(lines) != 1 || lines[0].Product.ID != keyboard.ID {
		t.Fatalf("expected keyboard snapshot, got %+v", lines)
	}
}

func TestCartService_Subscribe_SlowReaderSeesLatestOnly(t *testing.T) {
	cart := service.NewCartService()

	updates, cancel := cart.Subscribe()
	defer cancel()

	// Three mutations without a read in between; stale snapshots are
	// replaced, not queued.
	cart.Add(gpu)
	cart.Add(gpu)
	cart.Add(keyboard)

	lines := <-updates
	if len(lines) != 2 {
		t.Fatalf("expected latest snapshot with 2 lines, got %+v", lines)
	}
	if lines[0].Quantity != 2 {
		t.Fatalf("expected gpu x2 in latest snapshot, got x%d", lines[0].Quantity)
	}

	select {
	case extra := <-updates:
		t.Fatalf("expected no queued snapshots, got %+v", extra)
	default:
	}
}

func TestCartService_Subscribe_CancelClosesChannel(t *testing.T) {
	cart := service.NewCartService()

	updates, cancel := cart.Subscribe()
	<-updates
	cancel()

	if _, ok := <-updates; ok {
		t.Fatal("expected channel to be closed after cancel")
	}

	// Cancel twice is fine, and mutations after cancel do not panic.
	cancel()
	cart.Add(gpu)
}

func TestCartService_Remove_NotifiesEvenWhenAbsent(t *testing.T) {
	cart := service.NewCartService()

	updates, cancel := cart.Subscribe()
	defer cancel()
	<-updates

	cart.Remove(999)

	select {
	case lines := <-updates:
		if len(lines) != 0 {
			t.Fatalf("expected empty snapshot, got %+v", lines)
		}
	default:
		t.Fatal("expected a notification for remove of an absent product")
	}
}
