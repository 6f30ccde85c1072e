package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/voyagehq/farebot/internal/models"
	"github.com/voyagehq/farebot/internal/whatsapp"
)

func TestWhatsmeowSendMessage(t *testing.T) {
	svc := NewWhatsmeowService(whatsapp.NewMockClient())

	if err := svc.SendMessage(context.Background(), "+91 98765 43210", "hello"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	select {
	case receipt := <-svc.Receipts():
		if receipt.To != "919876543210" {
			t.Errorf("receipt To = %s, want 919876543210", receipt.To)
		}
		if receipt.Status != models.StatusTypeSent {
			t.Errorf("receipt status = %s, want %s", receipt.Status, models.StatusTypeSent)
		}
	default:
		t.Fatal("no receipt emitted")
	}

	if err := svc.SendMessage(context.Background(), "not-a-phone", "hello"); err == nil {
		t.Error("expected error for invalid recipient")
	}
}

func TestWhatsmeowSendAfterStop(t *testing.T) {
	svc := NewWhatsmeowService(whatsapp.NewMockClient())

	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := svc.SendMessage(context.Background(), "919876543210", "hello"); err != ErrServiceStopped {
		t.Errorf("error = %v, want ErrServiceStopped", err)
	}
	if err := svc.Stop(); err != nil {
		t.Errorf("second Stop failed: %v", err)
	}
}

func TestWhatsmeowSendsDoNotBlockWithoutReceiptReader(t *testing.T) {
	svc := NewWhatsmeowService(whatsapp.NewMockClient())
	defer svc.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < DefaultChannelBufferSize+1; i++ {
			if err := svc.SendMessage(context.Background(), "919876543210", "hello"); err != nil {
				t.Errorf("send %d failed: %v", i, err)
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(2*DefaultChannelTimeout + time.Second):
		t.Fatal("sends blocked with no one draining receipts")
	}
}
